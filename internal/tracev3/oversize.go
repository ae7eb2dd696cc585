package tracev3

import "fmt"

// Oversize holds the items of a firehose record that were too large to be
// stored inline.
type Oversize struct {
	FirstProcID    uint64
	SecondProcID   uint32
	TTL            uint8
	ContinuousTime uint64
	DataRef        uint32
	PublicSize     uint16
	PrivateSize    uint16
	Items          []Item
}

// Matches reports whether o is the payload referenced by a firehose record.
func (o *Oversize) Matches(dataRef uint32, first uint64, second uint32) bool {
	return o.DataRef == dataRef && o.FirstProcID == first && o.SecondProcID == second
}

func parseOversize(data []byte) (Oversize, error) {
	var o Oversize
	c := newCursor(data)
	o.FirstProcID = c.u64()
	o.SecondProcID = c.u32()
	o.TTL = c.u8()
	c.skip(3)
	o.ContinuousTime = c.u64()
	o.DataRef = c.u32()
	o.PublicSize = c.u16()
	o.PrivateSize = c.u16()
	public := c.bytes(int(o.PublicSize))
	if c.err != nil {
		return o, fmt.Errorf("oversize %d: %w", o.DataRef, c.err)
	}
	items, err := parseItems(public)
	if err != nil {
		return o, fmt.Errorf("oversize %d items: %w", o.DataRef, err)
	}
	o.Items = items
	return o, nil
}
