package uuidtext

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"batterylog/internal/binread"
)

// Signature is the magic number at the start of every uuidtext file.
const Signature uint32 = 0x66778899

// ErrSignature reports data that does not start with Signature.
var ErrSignature = errors.New("uuidtext: invalid signature")

// Descriptor maps a range of virtual string offsets onto the footer.
type Descriptor struct {
	RangeStartOffset uint32
	EntrySize        uint32
}

// File is one parsed uuidtext string table.
type File struct {
	UUID        uuid.UUID
	Path        string
	Major       uint32
	Minor       uint32
	Descriptors []Descriptor
	// Footer holds the string data of every descriptor laid out back to back,
	// followed by the NUL-terminated library path.
	Footer      []byte
	LibraryPath string
}

// Parse decodes a uuidtext file image. The returned File owns data.
func Parse(data []byte) (*File, error) {
	r := binread.New(data)
	sig, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("uuidtext header: %w", err)
	}
	if sig != Signature {
		return nil, fmt.Errorf("%w: %#x", ErrSignature, sig)
	}
	f := &File{}
	if f.Major, err = r.U32(); err != nil {
		return nil, fmt.Errorf("uuidtext header: %w", err)
	}
	if f.Minor, err = r.U32(); err != nil {
		return nil, fmt.Errorf("uuidtext header: %w", err)
	}
	count, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("uuidtext header: %w", err)
	}
	if uint64(count)*8 > uint64(r.Len()) {
		return nil, fmt.Errorf("uuidtext: %d descriptors exceed file size %d", count, len(data))
	}
	f.Descriptors = make([]Descriptor, 0, count)
	var total uint64
	for i := uint32(0); i < count; i++ {
		var d Descriptor
		if d.RangeStartOffset, err = r.U32(); err != nil {
			return nil, fmt.Errorf("uuidtext descriptor %d: %w", i, err)
		}
		if d.EntrySize, err = r.U32(); err != nil {
			return nil, fmt.Errorf("uuidtext descriptor %d: %w", i, err)
		}
		total += uint64(d.EntrySize)
		f.Descriptors = append(f.Descriptors, d)
	}
	f.Footer = r.Remaining()
	if total <= uint64(len(f.Footer)) {
		f.LibraryPath = binread.CString(f.Footer[total:])
	}
	return f, nil
}

// ReadFile parses the uuidtext file at path and derives its UUID from the
// directory and file name.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read uuidtext %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse uuidtext %s: %w", path, err)
	}
	f.Path = path
	if id, ok := UUIDFromPath(path); ok {
		f.UUID = id
	}
	return f, nil
}

// UUIDFromPath rebuilds the image UUID from a <XX>/<30 hex> uuidtext path.
func UUIDFromPath(path string) (uuid.UUID, bool) {
	name := filepath.Base(path)
	dir := filepath.Base(filepath.Dir(path))
	id, err := uuid.Parse(dir + name)
	if err != nil || len(dir)+len(name) != 32 {
		return uuid.Nil, false
	}
	return id, true
}

// StringAt returns the NUL-terminated string stored at the virtual offset.
func (f *File) StringAt(offset uint32) (string, bool) {
	var cursor uint64
	for _, d := range f.Descriptors {
		start := uint64(d.RangeStartOffset)
		end := start + uint64(d.EntrySize)
		if uint64(offset) >= start && uint64(offset) < end {
			pos := cursor + uint64(offset) - start
			if pos >= uint64(len(f.Footer)) {
				return "", false
			}
			return binread.CString(f.Footer[pos:]), true
		}
		cursor += uint64(d.EntrySize)
	}
	return "", false
}

// Collect parses every uuidtext file below root. Only two character
// hexadecimal directories are considered; files that are not uuidtext
// images are skipped.
func Collect(root string) ([]*File, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read uuidtext root %s: %w", root, err)
	}
	var files []*File
	for _, entry := range entries {
		if !entry.IsDir() || !isHexDir(entry.Name()) {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		children, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read uuidtext directory %s: %w", dir, err)
		}
		for _, child := range children {
			if !child.Type().IsRegular() || len(child.Name()) != 30 {
				continue
			}
			f, err := ReadFile(filepath.Join(dir, child.Name()))
			if err != nil {
				continue
			}
			files = append(files, f)
		}
	}
	return files, nil
}

func isHexDir(name string) bool {
	if len(name) != 2 {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F')
	}) < 0
}
