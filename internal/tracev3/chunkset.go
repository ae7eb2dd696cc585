package tracev3

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// Chunkset block signatures.
const (
	blockLZ4 uint32 = 0x31347662 // "bv41"
	blockRaw uint32 = 0x2d347662 // "bv4-"
	blockEnd uint32 = 0x24347662 // "bv4$"
)

// Declared LZ4 block sizes above either bound are treated as corrupt.
const (
	lz4MaxRatio  = 255
	maxBlockSize = 16 << 20
)

// decompressChunkset expands the blocks of a chunkset until the end marker.
func decompressChunkset(data []byte) ([]byte, error) {
	c := newCursor(data)
	var out []byte
	for {
		sig := c.u32()
		if c.err != nil {
			return nil, fmt.Errorf("chunkset block: %w", c.err)
		}
		switch sig {
		case blockEnd:
			return out, nil
		case blockLZ4:
			size := c.u32()
			compressedSize := c.u32()
			compressed := c.bytes(int(compressedSize))
			if c.err != nil {
				return nil, fmt.Errorf("chunkset lz4 block: %w", c.err)
			}
			if size > maxBlockSize || uint64(size) > lz4MaxRatio*uint64(compressedSize) {
				return nil, fmt.Errorf("chunkset lz4 block: declared size %d exceeds bound for %d compressed bytes", size, compressedSize)
			}
			block := make([]byte, size)
			n, err := lz4.UncompressBlock(compressed, block)
			if err != nil {
				return nil, fmt.Errorf("lz4 decompress: %w", err)
			}
			if n != int(size) {
				return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, size)
			}
			out = append(out, block...)
		case blockRaw:
			size := c.u32()
			raw := c.bytes(int(size))
			if c.err != nil {
				return nil, fmt.Errorf("chunkset raw block: %w", c.err)
			}
			out = append(out, raw...)
		default:
			return nil, fmt.Errorf("chunkset: unknown block signature %#x", sig)
		}
	}
}
