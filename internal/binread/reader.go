package binread

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Reader walks a byte slice front to back.
type Reader struct {
	data []byte
	off  int
}

// New returns a reader positioned at the start of data.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset reports the current position.
func (r *Reader) Offset() int { return r.off }

// Len reports the number of unread bytes.
func (r *Reader) Len() int { return len(r.data) - r.off }

// Remaining returns the unread bytes without advancing.
func (r *Reader) Remaining() []byte { return r.data[r.off:] }

// Seek moves to an absolute offset.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return fmt.Errorf("seek to %d of %d: %w", offset, len(r.data), io.ErrUnexpectedEOF)
	}
	r.off = offset
	return nil
}

// Skip advances n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.Bytes(n)
	return err
}

// Bytes returns the next n bytes. The result aliases the underlying slice.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, fmt.Errorf("read %d bytes at offset %d: %w", n, r.off, io.ErrUnexpectedEOF)
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// U48 reads a six byte little-endian integer, as used for catalog load
// addresses.
func (r *Reader) U48() (uint64, error) {
	b, err := r.Bytes(6)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// UUID reads 16 raw bytes in big-endian (network) order.
func (r *Reader) UUID() (uuid.UUID, error) {
	b, err := r.Bytes(16)
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	copy(id[:], b)
	return id, nil
}

// FixedString reads n bytes and trims everything from the first NUL.
func (r *Reader) FixedString(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	return CString(b), nil
}

// CString returns the bytes of b up to, but excluding, the first NUL.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// Padding returns the number of bytes needed to round size up to a multiple
// of align.
func Padding(size, align uint64) uint64 {
	if align == 0 {
		return 0
	}
	return (align - size%align) % align
}
