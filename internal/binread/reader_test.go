package binread

import (
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
)

func TestReaderLittleEndian(t *testing.T) {
	data := []byte{
		0x01,
		0x02, 0x01,
		0x04, 0x03, 0x02, 0x01,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
	}
	r := New(data)

	if v, err := r.U8(); err != nil || v != 0x01 {
		t.Fatalf("U8 = %#x, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0x0102 {
		t.Fatalf("U16 = %#x, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0x01020304 {
		t.Fatalf("U32 = %#x, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("U64 = %#x, %v", v, err)
	}
	if v, err := r.U48(); err != nil || v != 0x010203040506 {
		t.Fatalf("U48 = %#x, %v", v, err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected reader exhausted, %d bytes left", r.Len())
	}
}

func TestReaderTruncated(t *testing.T) {
	r := New([]byte{0x01, 0x02, 0x03})
	if _, err := r.U32(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
	if r.Offset() != 0 {
		t.Fatalf("failed read must not advance, offset %d", r.Offset())
	}
	if err := r.Seek(4); err == nil {
		t.Fatal("expected seek past end to fail")
	}
}

func TestReaderUUIDAndStrings(t *testing.T) {
	id := uuid.MustParse("8d3d5c4a-1f2e-4c3b-9a8b-7c6d5e4f3a2b")
	data := append([]byte{}, id[:]...)
	data = append(data, 'a', 'b', 0, 'z')

	r := New(data)
	got, err := r.UUID()
	if err != nil {
		t.Fatalf("UUID: %v", err)
	}
	if got != id {
		t.Fatalf("UUID = %s, want %s", got, id)
	}
	s, err := r.FixedString(4)
	if err != nil {
		t.Fatalf("FixedString: %v", err)
	}
	if s != "ab" {
		t.Fatalf("FixedString = %q, want %q", s, "ab")
	}
}

func TestPadding(t *testing.T) {
	cases := []struct {
		size, want uint64
	}{
		{0, 0},
		{1, 7},
		{7, 1},
		{8, 0},
		{13, 3},
	}
	for _, tc := range cases {
		if got := Padding(tc.size, 8); got != tc.want {
			t.Errorf("Padding(%d, 8) = %d, want %d", tc.size, got, tc.want)
		}
	}
}
