package tracev3

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"batterylog/internal/binread"
)

const catalogHeaderSize = 24

// Catalog describes the processes and subsystems referenced by the chunksets
// that follow it.
type Catalog struct {
	UUIDs                []uuid.UUID
	SubsystemStrings     []byte
	Processes            []ProcessInfo
	Subchunks            []CatalogSubchunk
	EarliestFirehoseTime uint64
}

// ProcessInfo is one process entry of a catalog.
type ProcessInfo struct {
	Index         uint16
	MainUUIDIndex uint16
	DSCUUIDIndex  uint16
	FirstProcID   uint64
	SecondProcID  uint32
	PID           uint32
	EffectiveUID  uint32
	MainUUID      uuid.UUID
	DSCUUID       uuid.UUID
	UUIDInfos     []ProcessUUIDInfo
	Subsystems    []ProcessSubsystem
}

// ProcessUUIDInfo is an image loaded by a process.
type ProcessUUIDInfo struct {
	Size        uint32
	UUIDIndex   uint16
	LoadAddress uint64
	UUID        uuid.UUID
}

// ProcessSubsystem names the subsystem and category behind a subsystem id.
type ProcessSubsystem struct {
	ID        uint16
	Subsystem string
	Category  string
}

// CatalogSubchunk summarizes one chunkset covered by the catalog.
type CatalogSubchunk struct {
	Start            uint64
	End              uint64
	UncompressedSize uint32
	Algorithm        uint32
	Indexes          []uint16
	StringOffsets    []uint16
}

// Process finds the entry for a firehose chunk's process identifiers.
func (cat *Catalog) Process(first uint64, second uint32) (*ProcessInfo, bool) {
	for i := range cat.Processes {
		p := &cat.Processes[i]
		if p.FirstProcID == first && p.SecondProcID == second {
			return p, true
		}
	}
	return nil, false
}

// Subsystem resolves a subsystem id logged by the process.
func (p *ProcessInfo) Subsystem(id uint16) (ProcessSubsystem, bool) {
	for _, s := range p.Subsystems {
		if s.ID == id {
			return s, true
		}
	}
	return ProcessSubsystem{}, false
}

func parseCatalog(data []byte) (Catalog, error) {
	var cat Catalog
	c := newCursor(data)
	subsystemOffset := c.u16()
	processOffset := c.u16()
	processCount := c.u16()
	subchunkOffset := c.u16()
	subchunkCount := c.u16()
	c.skip(6)
	cat.EarliestFirehoseTime = c.u64()
	if c.err != nil {
		return cat, fmt.Errorf("catalog header: %w", c.err)
	}
	if subsystemOffset > processOffset || processOffset > subchunkOffset {
		return cat, fmt.Errorf("catalog: offsets out of order (%d, %d, %d)", subsystemOffset, processOffset, subchunkOffset)
	}

	for i := 0; i < int(subsystemOffset)/16; i++ {
		cat.UUIDs = append(cat.UUIDs, c.id())
	}
	c.seek(catalogHeaderSize + int(subsystemOffset))
	cat.SubsystemStrings = bytes.Clone(c.bytes(int(processOffset - subsystemOffset)))
	if c.err != nil {
		return cat, fmt.Errorf("catalog strings: %w", c.err)
	}

	for i := 0; i < int(processCount); i++ {
		p, err := cat.parseProcess(c)
		if err != nil {
			return cat, fmt.Errorf("catalog process %d: %w", i, err)
		}
		cat.Processes = append(cat.Processes, p)
	}

	c.seek(catalogHeaderSize + int(subchunkOffset))
	for i := 0; i < int(subchunkCount); i++ {
		var sc CatalogSubchunk
		sc.Start = c.u64()
		sc.End = c.u64()
		sc.UncompressedSize = c.u32()
		sc.Algorithm = c.u32()
		n := c.u32()
		if c.err == nil && uint64(n)*2 > uint64(c.len()) {
			return cat, fmt.Errorf("catalog subchunk %d: %d indexes exceed chunk", i, n)
		}
		for j := uint32(0); j < n && c.err == nil; j++ {
			sc.Indexes = append(sc.Indexes, c.u16())
		}
		k := c.u32()
		if c.err == nil && uint64(k)*2 > uint64(c.len()) {
			return cat, fmt.Errorf("catalog subchunk %d: %d string offsets exceed chunk", i, k)
		}
		for j := uint32(0); j < k && c.err == nil; j++ {
			sc.StringOffsets = append(sc.StringOffsets, c.u16())
		}
		c.align(uint64(n)*2 + uint64(k)*2)
		if c.err != nil {
			return cat, fmt.Errorf("catalog subchunk %d: %w", i, c.err)
		}
		cat.Subchunks = append(cat.Subchunks, sc)
	}
	return cat, nil
}

func (cat *Catalog) parseProcess(c *cursor) (ProcessInfo, error) {
	var p ProcessInfo
	p.Index = c.u16()
	c.skip(2)
	p.MainUUIDIndex = c.u16()
	p.DSCUUIDIndex = c.u16()
	p.FirstProcID = c.u64()
	p.SecondProcID = c.u32()
	p.PID = c.u32()
	p.EffectiveUID = c.u32()
	c.skip(4)
	uuidCount := c.u32()
	c.skip(4)
	if c.err != nil {
		return p, c.err
	}
	if uint64(uuidCount)*16 > uint64(c.len()) {
		return p, fmt.Errorf("%d uuid entries exceed chunk", uuidCount)
	}
	p.MainUUID = cat.uuidAt(p.MainUUIDIndex)
	p.DSCUUID = cat.uuidAt(p.DSCUUIDIndex)

	for i := uint32(0); i < uuidCount; i++ {
		var info ProcessUUIDInfo
		info.Size = c.u32()
		c.skip(4)
		info.UUIDIndex = c.u16()
		info.LoadAddress = c.u48()
		info.UUID = cat.uuidAt(info.UUIDIndex)
		p.UUIDInfos = append(p.UUIDInfos, info)
	}

	subsystemCount := c.u32()
	c.skip(4)
	if c.err != nil {
		return p, c.err
	}
	if uint64(subsystemCount)*6 > uint64(c.len()) {
		return p, fmt.Errorf("%d subsystems exceed chunk", subsystemCount)
	}
	for i := uint32(0); i < subsystemCount; i++ {
		id := c.u16()
		subsystem := c.u16()
		category := c.u16()
		p.Subsystems = append(p.Subsystems, ProcessSubsystem{
			ID:        id,
			Subsystem: cat.stringAt(subsystem),
			Category:  cat.stringAt(category),
		})
	}
	c.align(uint64(subsystemCount) * 6)
	return p, c.err
}

func (cat *Catalog) uuidAt(index uint16) uuid.UUID {
	if int(index) < len(cat.UUIDs) {
		return cat.UUIDs[index]
	}
	return uuid.Nil
}

func (cat *Catalog) stringAt(offset uint16) string {
	if int(offset) < len(cat.SubsystemStrings) {
		return binread.CString(cat.SubsystemStrings[offset:])
	}
	return ""
}
