package tracev3

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	firehosePreambleSize = 32
	firehoseRecordSize   = 24
	// publicDataSize counts the 16 bytes of preamble that follow it.
	publicDataOverhead = 16
)

// Activity types of firehose records.
const (
	ActivityTypeActivity    uint8 = 0x2
	ActivityTypeTrace       uint8 = 0x3
	ActivityTypeNonActivity uint8 = 0x4
	ActivityTypeSignpost    uint8 = 0x6
	ActivityTypeLoss        uint8 = 0x7
)

// Non-activity record flags.
const (
	FlagCurrentAID  uint16 = 0x0001
	FlagOtherAID    uint16 = 0x0010
	FlagLargeOffset uint16 = 0x0020
	FlagPrivateData uint16 = 0x0100
	FlagSubsystem   uint16 = 0x0200
	FlagRules       uint16 = 0x0400
	FlagDataRef     uint16 = 0x0800

	formatterMask uint16 = 0x000e
)

// Formatter values select where the format string lives.
const (
	FormatterMainExe          uint16 = 0x2
	FormatterSharedCache      uint16 = 0x4
	FormatterAbsolute         uint16 = 0x8
	FormatterUUIDRelative     uint16 = 0xa
	FormatterLargeSharedCache uint16 = 0xc
)

// FirehoseChunk is one decoded firehose chunk.
type FirehoseChunk struct {
	FirstProcID          uint64
	SecondProcID         uint32
	TTL                  uint8
	Collapsed            uint8
	PublicDataSize       uint16
	PrivateVirtualOffset uint16
	BaseContinuousTime   uint64
	// Catalog indexes RawTraceData.Catalogs, or is -1 when no catalog
	// preceded the chunkset.
	Catalog int
	Records []FirehoseRecord
}

// FirehoseRecord is one non-activity log statement.
type FirehoseRecord struct {
	ActivityType   uint8
	LogType        uint8
	Flags          uint16
	FormatLocation uint32
	ThreadID       uint64
	ContinuousTime uint64

	ActivityID       uint32
	OtherActivityID  uint32
	PrivateOffset    uint16
	PrivateSize      uint16
	PCID             uint32
	UUIDIndex        uint16
	UUID             uuid.UUID
	LargeSharedCache uint16
	LargeOffset      uint16
	SubsystemID      uint16
	TTL              uint8
	DataRef          uint16
	Items            []Item
}

// Formatter returns the format string source encoded in the flags.
func (r *FirehoseRecord) Formatter() uint16 { return r.Flags & formatterMask }

// HasDataRef reports whether the record's items live in an oversize chunk.
func (r *FirehoseRecord) HasDataRef() bool { return r.Flags&FlagDataRef != 0 }

func parseFirehose(data []byte, anchor uint32) (FirehoseChunk, error) {
	var fc FirehoseChunk
	c := newCursor(data)
	fc.FirstProcID = c.u64()
	fc.SecondProcID = c.u32()
	fc.TTL = c.u8()
	fc.Collapsed = c.u8()
	c.skip(2)
	fc.PublicDataSize = c.u16()
	fc.PrivateVirtualOffset = c.u16()
	c.skip(4)
	fc.BaseContinuousTime = c.u64()
	if c.err != nil {
		return fc, fmt.Errorf("firehose preamble: %w", c.err)
	}
	if fc.PublicDataSize < publicDataOverhead {
		return fc, fmt.Errorf("firehose: public data size %d too small", fc.PublicDataSize)
	}
	public := c.bytes(int(fc.PublicDataSize) - publicDataOverhead)
	if c.err != nil {
		return fc, fmt.Errorf("firehose public data: %w", c.err)
	}

	rc := newCursor(public)
	for rc.len() >= firehoseRecordSize {
		var rec FirehoseRecord
		rec.ActivityType = rc.u8()
		if rec.ActivityType == 0 {
			break
		}
		rec.LogType = rc.u8()
		rec.Flags = rc.u16()
		rec.FormatLocation = rc.u32()
		rec.ThreadID = rc.u64()
		delta := uint64(rc.u32())
		delta |= uint64(rc.u16()) << 32
		size := rc.u16()
		body := rc.bytes(int(size))
		rc.align(uint64(size))
		if rc.err != nil {
			return fc, fmt.Errorf("firehose record: %w", rc.err)
		}
		if rec.ActivityType != ActivityTypeNonActivity {
			continue
		}
		if anchor != 0 && rec.FormatLocation != anchor {
			continue
		}
		rec.ContinuousTime = fc.BaseContinuousTime + delta
		if err := rec.parseNonActivity(body); err != nil {
			return fc, fmt.Errorf("firehose record at %#x: %w", rec.FormatLocation, err)
		}
		fc.Records = append(fc.Records, rec)
	}
	return fc, nil
}

func (r *FirehoseRecord) parseNonActivity(data []byte) error {
	c := newCursor(data)
	if r.Flags&FlagCurrentAID != 0 {
		r.ActivityID = c.u32()
		c.skip(4)
	}
	if r.Flags&FlagPrivateData != 0 {
		r.PrivateOffset = c.u16()
		r.PrivateSize = c.u16()
	}
	r.PCID = c.u32()
	switch r.Formatter() {
	case FormatterAbsolute:
		r.UUIDIndex = c.u16()
	case FormatterUUIDRelative:
		r.UUID = c.id()
	case FormatterLargeSharedCache:
		r.LargeSharedCache = c.u16()
	}
	if r.Flags&FlagLargeOffset != 0 {
		r.LargeOffset = c.u16()
	}
	if r.Flags&FlagOtherAID != 0 {
		r.OtherActivityID = c.u32()
	}
	if r.Flags&FlagSubsystem != 0 {
		r.SubsystemID = c.u16()
	}
	if r.Flags&FlagRules != 0 {
		r.TTL = c.u8()
	}
	if r.Flags&FlagDataRef != 0 {
		r.DataRef = c.u16()
	}
	if c.err != nil {
		return c.err
	}
	if r.HasDataRef() {
		return nil
	}
	items, err := parseItems(c.remaining())
	if err != nil {
		return err
	}
	r.Items = items
	return nil
}
