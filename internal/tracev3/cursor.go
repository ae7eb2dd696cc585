package tracev3

import (
	"github.com/google/uuid"

	"batterylog/internal/binread"
)

// cursor wraps a binread.Reader and keeps the first error so fixed-layout
// structs can be decoded field by field and checked once.
type cursor struct {
	r   *binread.Reader
	err error
}

func newCursor(data []byte) *cursor {
	return &cursor{r: binread.New(data)}
}

func (c *cursor) u8() uint8 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.U8()
	c.err = err
	return v
}

func (c *cursor) u16() uint16 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.U16()
	c.err = err
	return v
}

func (c *cursor) u32() uint32 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.U32()
	c.err = err
	return v
}

func (c *cursor) u48() uint64 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.U48()
	c.err = err
	return v
}

func (c *cursor) u64() uint64 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.U64()
	c.err = err
	return v
}

func (c *cursor) id() uuid.UUID {
	if c.err != nil {
		return uuid.Nil
	}
	v, err := c.r.UUID()
	c.err = err
	return v
}

func (c *cursor) str(n int) string {
	if c.err != nil {
		return ""
	}
	v, err := c.r.FixedString(n)
	c.err = err
	return v
}

func (c *cursor) bytes(n int) []byte {
	if c.err != nil {
		return nil
	}
	v, err := c.r.Bytes(n)
	c.err = err
	return v
}

func (c *cursor) skip(n int) {
	if c.err != nil {
		return
	}
	c.err = c.r.Skip(n)
}

func (c *cursor) seek(offset int) {
	if c.err != nil {
		return
	}
	c.err = c.r.Seek(offset)
}

// align skips the padding that follows size bytes of payload. Trailing
// padding may be missing at the end of the data.
func (c *cursor) align(size uint64) {
	if c.err != nil {
		return
	}
	pad := int(binread.Padding(size, 8))
	c.err = c.r.Skip(min(pad, c.r.Len()))
}

func (c *cursor) len() int { return c.r.Len() }

func (c *cursor) remaining() []byte { return c.r.Remaining() }
