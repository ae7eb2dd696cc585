package tracev3

import (
	"errors"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Chunk tags.
const (
	TagHeader     uint32 = 0x1000
	TagCatalog    uint32 = 0x600b
	TagChunkset   uint32 = 0x600d
	TagFirehose   uint32 = 0x6001
	TagOversize   uint32 = 0x6002
	TagStatedump  uint32 = 0x6003
	TagSimpledump uint32 = 0x6004
)

const preambleSize = 16

// ErrNoHeader reports a trace file that does not start with a header chunk.
var ErrNoHeader = errors.New("tracev3: missing header chunk")

// RawTraceData is everything decoded from one tracev3 file.
type RawTraceData struct {
	Header   Header
	Catalogs []Catalog
	Firehose []FirehoseChunk
	// Oversize holds records referenced by firehose entries whose payload did
	// not fit in the firehose chunk. Callers may append records carried over
	// from earlier files of the same category.
	Oversize    []Oversize
	Statedumps  int
	Simpledumps int
}

// RecordCount returns the number of firehose records retained.
func (d *RawTraceData) RecordCount() int {
	n := 0
	for _, fc := range d.Firehose {
		n += len(fc.Records)
	}
	return n
}

// Parse maps the tracev3 file at path read-only and decodes it. Records whose
// format string location differs from a non-zero anchor are dropped.
func Parse(path string, anchor uint32) (*RawTraceData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat trace %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("trace %s: %w", path, ErrNoHeader)
	}

	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("map trace %s: %w", path, err)
	}
	defer func() {
		_ = mapped.Unmap()
	}()

	data, err := ParseBytes(mapped, anchor)
	if err != nil {
		return nil, fmt.Errorf("decode trace %s: %w", path, err)
	}
	return data, nil
}

// ParseBytes decodes an in-memory tracev3 image. The result never aliases
// data, so the caller may release it afterwards.
func ParseBytes(data []byte, anchor uint32) (*RawTraceData, error) {
	out := &RawTraceData{}
	c := newCursor(data)
	first := true
	for c.len() >= preambleSize {
		tag := c.u32()
		_ = c.u32() // subtag
		size := c.u64()
		if c.err != nil {
			return nil, c.err
		}
		if size > uint64(c.len()) {
			return nil, fmt.Errorf("chunk %#x at offset %d: size %d exceeds remaining %d", tag, c.r.Offset()-preambleSize, size, c.len())
		}
		body := c.bytes(int(size))
		c.align(size)
		if c.err != nil {
			return nil, c.err
		}

		if first && tag != TagHeader {
			return nil, fmt.Errorf("%w: first chunk tag %#x", ErrNoHeader, tag)
		}
		first = false

		switch tag {
		case TagHeader:
			h, err := parseHeader(body)
			if err != nil {
				return nil, err
			}
			out.Header = h
		case TagCatalog:
			cat, err := parseCatalog(body)
			if err != nil {
				return nil, err
			}
			out.Catalogs = append(out.Catalogs, cat)
		case TagChunkset:
			decoded, err := decompressChunkset(body)
			if err != nil {
				return nil, err
			}
			if err := out.parseChunkset(decoded, len(out.Catalogs)-1, anchor); err != nil {
				return nil, err
			}
		default:
			// Unknown chunks are skipped.
		}
	}
	if first {
		return nil, ErrNoHeader
	}
	return out, nil
}

// parseChunkset decodes the chunks inside one decompressed chunkset. Every
// chunk belongs to the catalog that preceded the chunkset.
func (d *RawTraceData) parseChunkset(data []byte, catalog int, anchor uint32) error {
	c := newCursor(data)
	for c.len() >= preambleSize {
		tag := c.u32()
		_ = c.u32()
		size := c.u64()
		if c.err != nil {
			return c.err
		}
		if size > uint64(c.len()) {
			return fmt.Errorf("chunkset chunk %#x: size %d exceeds remaining %d", tag, size, c.len())
		}
		body := c.bytes(int(size))
		c.align(size)
		if c.err != nil {
			return c.err
		}

		switch tag {
		case TagFirehose:
			fc, err := parseFirehose(body, anchor)
			if err != nil {
				return err
			}
			fc.Catalog = catalog
			d.Firehose = append(d.Firehose, fc)
		case TagOversize:
			o, err := parseOversize(body)
			if err != nil {
				return err
			}
			d.Oversize = append(d.Oversize, o)
		case TagStatedump:
			d.Statedumps++
		case TagSimpledump:
			d.Simpledumps++
		}
	}
	return nil
}
