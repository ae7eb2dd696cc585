package tracev3

import (
	"bytes"
	"fmt"
)

// Item is one argument of a log statement.
type Item struct {
	Type uint8
	Size uint8
	// Value holds the little-endian number bytes or the string bytes. It is
	// nil for private values.
	Value   []byte
	Private bool
}

// IsNumber reports whether the item carries an inline integer.
func (it Item) IsNumber() bool { return isNumberType(it.Type) }

// IsPrecision reports whether the item is a width or precision argument.
func (it Item) IsPrecision() bool { return it.Type == 0x10 || it.Type == 0x12 }

// IsString reports whether the item references string data.
func (it Item) IsString() bool { return isStringType(it.Type) }

// Uint returns the numeric value of a number item.
func (it Item) Uint() uint64 {
	var v uint64
	for i := len(it.Value) - 1; i >= 0; i-- {
		v = v<<8 | uint64(it.Value[i])
	}
	return v
}

// Int returns the numeric value sign-extended from the item size.
func (it Item) Int() int64 {
	v := it.Uint()
	switch len(it.Value) {
	case 1:
		return int64(int8(v))
	case 2:
		return int64(int16(v))
	case 4:
		return int64(int32(v))
	}
	return int64(v)
}

func isNumberType(t uint8) bool { return t == 0x00 || t == 0x01 || t == 0x02 }

func isStringType(t uint8) bool {
	switch t {
	case 0x20, 0x21, 0x22, 0x25, 0x30, 0x31, 0x32, 0x35, 0x40, 0x41, 0x42, 0x45, 0xf2:
		return true
	}
	return false
}

func isPrivateType(t uint8) bool {
	if isStringType(t) {
		return t&0x1 != 0
	}
	return t == 0x01
}

// parseItems decodes an item blob: a reserved byte, the item count, the item
// headers and the string region they point into.
func parseItems(data []byte) ([]Item, error) {
	if len(data) == 0 {
		return nil, nil
	}
	c := newCursor(data)
	c.skip(1)
	count := c.u8()
	if c.err != nil {
		return nil, fmt.Errorf("items header: %w", c.err)
	}

	type ref struct{ offset, size uint16 }
	items := make([]Item, 0, count)
	refs := make([]ref, count)
	for i := 0; i < int(count); i++ {
		it := Item{Type: c.u8(), Size: c.u8()}
		it.Private = isPrivateType(it.Type)
		switch {
		case isStringType(it.Type):
			refs[i] = ref{offset: c.u16(), size: c.u16()}
		default:
			v := c.bytes(int(it.Size))
			if !it.Private {
				it.Value = bytes.Clone(v)
			}
		}
		if c.err != nil {
			return nil, fmt.Errorf("item %d: %w", i, c.err)
		}
		items = append(items, it)
	}

	strs := c.remaining()
	for i := range items {
		if !items[i].IsString() || items[i].Private {
			continue
		}
		end := int(refs[i].offset) + int(refs[i].size)
		if end > len(strs) {
			return nil, fmt.Errorf("item %d: string [%d, %d) beyond region of %d bytes", i, refs[i].offset, end, len(strs))
		}
		items[i].Value = bytes.Clone(strs[refs[i].offset:end])
	}
	return items, nil
}
