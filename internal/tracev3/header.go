package tracev3

import (
	"fmt"

	"github.com/google/uuid"
)

// Header subchunk tags.
const (
	subchunkContinuous uint32 = 0x6100
	subchunkSystemInfo uint32 = 0x6101
	subchunkGeneration uint32 = 0x6102
	subchunkTimezone   uint32 = 0x6103
)

// Header is the first chunk of every tracev3 file.
type Header struct {
	TimebaseNumerator   uint32
	TimebaseDenominator uint32
	ContinuousTime      uint64
	UnknownTime         uint64
	BiasMinutes         uint32
	DaylightSavings     uint32
	Flags               uint32

	SubchunkContinuous uint64
	BuildVersion       string
	HardwareModel      string
	BootUUID           uuid.UUID
	LogdPID            uint32
	LogdExitStatus     uint32
	TimezonePath       string
}

func parseHeader(data []byte) (Header, error) {
	var h Header
	c := newCursor(data)
	h.TimebaseNumerator = c.u32()
	h.TimebaseDenominator = c.u32()
	h.ContinuousTime = c.u64()
	h.UnknownTime = c.u64()
	c.skip(4)
	h.BiasMinutes = c.u32()
	h.DaylightSavings = c.u32()
	h.Flags = c.u32()
	if c.err != nil {
		return h, fmt.Errorf("header: %w", c.err)
	}

	for c.len() >= 8 {
		tag := c.u32()
		size := c.u32()
		body := c.bytes(int(size))
		if c.err != nil {
			return h, fmt.Errorf("header subchunk %#x: %w", tag, c.err)
		}
		sc := newCursor(body)
		switch tag {
		case subchunkContinuous:
			h.SubchunkContinuous = sc.u64()
		case subchunkSystemInfo:
			sc.skip(8)
			h.BuildVersion = sc.str(16)
			h.HardwareModel = sc.str(32)
		case subchunkGeneration:
			h.BootUUID = sc.id()
			h.LogdPID = sc.u32()
			h.LogdExitStatus = sc.u32()
		case subchunkTimezone:
			h.TimezonePath = sc.str(48)
		}
		if sc.err != nil {
			return h, fmt.Errorf("header subchunk %#x: %w", tag, sc.err)
		}
	}
	return h, nil
}
