// Package footer locates the battery health format string inside uuidtext
// string tables.
package footer

import (
	"bytes"

	"github.com/google/uuid"

	"batterylog/internal/uuidtext"
)

var (
	marker         = []byte("Updated Battery Health")
	capacityMarker = []byte("MaxCapacity:")
)

// Anchor is the result of a scan. Offset is 0 when nothing matched.
type Anchor struct {
	// Offset is the virtual offset of the matching format string, the value
	// firehose records store as their format string location.
	Offset  uint32
	Table   uuid.UUID
	Library string
	Text    string
	Matches int
}

// Found reports whether any table held the marker.
func (a Anchor) Found() bool { return a.Matches > 0 }

// Scan walks every descriptor of every table in order and returns the offset
// of the last string containing both markers. Within one descriptor only the
// first match counts.
func Scan(tables []*uuidtext.File) Anchor {
	var anchor Anchor
	for _, table := range tables {
		var realOffset uint64
		for _, d := range table.Descriptors {
			if off, text, ok := scanDescriptor(table.Footer, realOffset, d); ok {
				anchor.Offset = off
				anchor.Table = table.UUID
				anchor.Library = table.LibraryPath
				anchor.Text = text
				anchor.Matches++
			}
			realOffset += uint64(d.EntrySize)
		}
	}
	return anchor
}

// scanDescriptor looks at one descriptor's bytes only. A string left
// unterminated at the end of the descriptor is dropped, not continued into
// the next one.
func scanDescriptor(footer []byte, realOffset uint64, d uuidtext.Descriptor) (uint32, string, bool) {
	end := min(realOffset+uint64(d.EntrySize), uint64(len(footer)))
	var buf []byte
	for cursor := realOffset; cursor < end; cursor++ {
		b := footer[cursor]
		if b != 0 {
			buf = append(buf, b)
			continue
		}
		if bytes.Contains(buf, marker) && bytes.Contains(buf, capacityMarker) {
			offset := uint64(d.RangeStartOffset) + cursor - realOffset - uint64(len(buf))
			return uint32(offset), string(buf), true
		}
		buf = buf[:0]
	}
	return 0, "", false
}
