package dsc

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"batterylog/internal/testsupport"
)

func TestParseVersions(t *testing.T) {
	images := []uuid.UUID{uuid.New(), uuid.New()}
	ranges := []testsupport.DSCRange{
		{Offset: 0x100, Strings: []string{"first %d", "second %s"}},
		{Offset: 0x80000000, Strings: []string{"far away"}},
	}

	for _, major := range []uint16{1, 2} {
		s, err := Parse(testsupport.DSC(major, ranges, images))
		if err != nil {
			t.Fatalf("v%d Parse: %v", major, err)
		}
		if len(s.Ranges) != 2 || len(s.Images) != 2 {
			t.Fatalf("v%d: got %d ranges %d images", major, len(s.Ranges), len(s.Images))
		}
		if got, ok := s.StringAt(0x100 + uint64(len("first %d")+1)); !ok || got != "second %s" {
			t.Fatalf("v%d StringAt = %q, %v", major, got, ok)
		}
		if got, ok := s.StringAt(0x80000000); !ok || got != "far away" {
			t.Fatalf("v%d StringAt far = %q, %v", major, got, ok)
		}
		if _, ok := s.StringAt(0x10); ok {
			t.Fatalf("v%d: expected miss below first range", major)
		}
		if s.Images[1].UUID != images[1] || s.Images[1].Path != "/usr/lib/libfixture1.dylib" {
			t.Fatalf("v%d: unexpected image %+v", major, s.Images[1])
		}
		img, ok := s.ImageFor(s.Ranges[1])
		if !ok || img.UUID != images[1] {
			t.Fatalf("v%d: ImageFor = %+v, %v", major, img, ok)
		}
	}
}

func TestParseRejectsBadSignature(t *testing.T) {
	_, err := Parse([]byte{0, 0, 0, 0, 1, 0, 0, 0})
	if !errors.Is(err, ErrSignature) {
		t.Fatalf("expected ErrSignature, got %v", err)
	}
}

func TestParseRejectsRangeBeyondFile(t *testing.T) {
	data := testsupport.DSC(2, []testsupport.DSCRange{{Offset: 0, Strings: []string{"abc"}}}, nil)
	if _, err := Parse(data[:len(data)-2]); err == nil {
		t.Fatal("expected error for truncated range data")
	}
}

func TestCollectSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	cacheID := uuid.New()
	testsupport.WriteFile(t, filepath.Join(dir, testsupport.HexName(cacheID)), testsupport.DSC(2, []testsupport.DSCRange{{Offset: 0, Strings: []string{"x"}}}, nil))
	testsupport.WriteFile(t, filepath.Join(dir, ".DS_Store"), []byte("junk"))

	all, err := Collect(dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 shared strings file, got %d", len(all))
	}
	if all[0].UUID != cacheID {
		t.Fatalf("UUID = %s, want %s", all[0].UUID, cacheID)
	}
}
