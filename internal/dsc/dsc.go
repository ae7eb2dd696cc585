// Package dsc parses the shared cache string files stored under
// /private/var/db/uuidtext/dsc. Format strings of libraries that live in the
// dyld shared cache are looked up here instead of in per-image uuidtext
// files.
package dsc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"batterylog/internal/binread"
)

// Signature is "hcsd" read as a little-endian uint32.
const Signature uint32 = 0x64736368

// ErrSignature reports data that does not start with Signature.
var ErrSignature = errors.New("dsc: invalid signature")

// Range maps virtual format string offsets onto string bytes in the file.
type Range struct {
	Offset     uint64
	DataOffset uint32
	Size       uint32
	UUIDIndex  uint64
	Strings    []byte
}

// Image describes one library in the shared cache.
type Image struct {
	TextOffset uint64
	TextSize   uint32
	UUID       uuid.UUID
	PathOffset uint32
	Path       string
}

// Strings is one parsed shared cache strings file.
type Strings struct {
	UUID   uuid.UUID
	Path   string
	Major  uint16
	Minor  uint16
	Ranges []Range
	Images []Image
}

// Parse decodes a shared cache strings image. Version 1 and 2 layouts are
// supported.
func Parse(data []byte) (*Strings, error) {
	r := binread.New(data)
	sig, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("dsc header: %w", err)
	}
	if sig != Signature {
		return nil, fmt.Errorf("%w: %#x", ErrSignature, sig)
	}
	s := &Strings{}
	if s.Major, err = r.U16(); err != nil {
		return nil, fmt.Errorf("dsc header: %w", err)
	}
	if s.Minor, err = r.U16(); err != nil {
		return nil, fmt.Errorf("dsc header: %w", err)
	}
	rangeCount, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("dsc header: %w", err)
	}
	imageCount, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("dsc header: %w", err)
	}
	if s.Major != 1 && s.Major != 2 {
		return nil, fmt.Errorf("dsc: unsupported version %d.%d", s.Major, s.Minor)
	}

	for i := uint32(0); i < rangeCount; i++ {
		rng, err := parseRange(r, s.Major)
		if err != nil {
			return nil, fmt.Errorf("dsc range %d: %w", i, err)
		}
		end := uint64(rng.DataOffset) + uint64(rng.Size)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("dsc range %d: data [%d, %d) beyond file size %d", i, rng.DataOffset, end, len(data))
		}
		rng.Strings = data[rng.DataOffset:end]
		s.Ranges = append(s.Ranges, rng)
	}
	for i := uint32(0); i < imageCount; i++ {
		img, err := parseImage(r, s.Major)
		if err != nil {
			return nil, fmt.Errorf("dsc image %d: %w", i, err)
		}
		if int(img.PathOffset) < len(data) {
			img.Path = binread.CString(data[img.PathOffset:])
		}
		s.Images = append(s.Images, img)
	}
	return s, nil
}

func parseRange(r *binread.Reader, major uint16) (Range, error) {
	var rng Range
	var err error
	if major == 1 {
		var off, idx uint32
		if off, err = r.U32(); err != nil {
			return rng, err
		}
		rng.Offset = uint64(off)
		if rng.DataOffset, err = r.U32(); err != nil {
			return rng, err
		}
		if rng.Size, err = r.U32(); err != nil {
			return rng, err
		}
		if idx, err = r.U32(); err != nil {
			return rng, err
		}
		rng.UUIDIndex = uint64(idx)
		return rng, nil
	}
	if rng.Offset, err = r.U64(); err != nil {
		return rng, err
	}
	if rng.DataOffset, err = r.U32(); err != nil {
		return rng, err
	}
	if rng.Size, err = r.U32(); err != nil {
		return rng, err
	}
	if rng.UUIDIndex, err = r.U64(); err != nil {
		return rng, err
	}
	return rng, nil
}

func parseImage(r *binread.Reader, major uint16) (Image, error) {
	var img Image
	var err error
	if major == 1 {
		var off uint32
		if off, err = r.U32(); err != nil {
			return img, err
		}
		img.TextOffset = uint64(off)
	} else if img.TextOffset, err = r.U64(); err != nil {
		return img, err
	}
	if img.TextSize, err = r.U32(); err != nil {
		return img, err
	}
	if img.UUID, err = r.UUID(); err != nil {
		return img, err
	}
	if img.PathOffset, err = r.U32(); err != nil {
		return img, err
	}
	return img, nil
}

// StringAt returns the format string at a shared cache virtual offset.
func (s *Strings) StringAt(offset uint64) (string, bool) {
	for _, rng := range s.Ranges {
		if offset >= rng.Offset && offset < rng.Offset+uint64(rng.Size) {
			return binread.CString(rng.Strings[offset-rng.Offset:]), true
		}
	}
	return "", false
}

// ImageFor returns the library whose text segment covers the offset of the
// given range.
func (s *Strings) ImageFor(rng Range) (Image, bool) {
	if rng.UUIDIndex < uint64(len(s.Images)) {
		return s.Images[rng.UUIDIndex], true
	}
	return Image{}, false
}

// ReadFile parses the shared strings file at path. The file name is the
// cache UUID.
func ReadFile(path string) (*Strings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dsc %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse dsc %s: %w", path, err)
	}
	s.Path = path
	if id, err := uuid.Parse(filepath.Base(path)); err == nil {
		s.UUID = id
	}
	return s, nil
}

// Collect parses every shared strings file in dir, skipping anything that is
// not a shared cache strings image.
func Collect(dir string) ([]*Strings, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dsc directory %s: %w", dir, err)
	}
	var out []*Strings
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		s, err := ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
