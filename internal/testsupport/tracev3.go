package testsupport

import (
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"
)

// TraceItem is one log argument written into a firehose record.
type TraceItem struct {
	Type   uint8
	Size   uint8
	Number uint64
	Text   string
}

// Number returns a public 32-bit integer argument.
func Number(v uint64) TraceItem { return TraceItem{Type: 0x00, Size: 4, Number: v} }

// Number64 returns a public 64-bit integer argument.
func Number64(v uint64) TraceItem { return TraceItem{Type: 0x00, Size: 8, Number: v} }

// PrivateNumber returns a redacted integer argument.
func PrivateNumber(v uint64) TraceItem { return TraceItem{Type: 0x01, Size: 4, Number: v} }

// String returns a public string argument.
func String(s string) TraceItem { return TraceItem{Type: 0x22, Text: s} }

// PrivateString returns a redacted string argument.
func PrivateString(s string) TraceItem { return TraceItem{Type: 0x21, Text: s} }

func (it TraceItem) isString() bool {
	switch it.Type {
	case 0x20, 0x21, 0x22, 0x25, 0x30, 0x31, 0x32, 0x35, 0x40, 0x41, 0x42, 0x45, 0xf2:
		return true
	}
	return false
}

// TraceSubsystem is a subsystem id registered for a process.
type TraceSubsystem struct {
	ID        uint16
	Subsystem string
	Category  string
}

// TraceProcess is a catalog process entry.
type TraceProcess struct {
	FirstProcID  uint64
	SecondProcID uint32
	PID          uint32
	MainUUID     uuid.UUID
	DSCUUID      uuid.UUID
	Subsystems   []TraceSubsystem
}

// TraceRecord is a firehose record. ActivityType defaults to non-activity and
// Formatter defaults to the main executable.
type TraceRecord struct {
	ActivityType uint8
	LogType      uint8
	Formatter    uint16
	Location     uint32
	ThreadID     uint64
	Delta        uint64
	ActivityID   uint32
	UUIDIndex    uint16
	UUID         uuid.UUID
	LargeOffset  uint16
	SubsystemID  uint16
	DataRef      uint16
	Items        []TraceItem
}

// TraceChunk is one firehose chunk.
type TraceChunk struct {
	FirstProcID  uint64
	SecondProcID uint32
	BaseTime     uint64
	Records      []TraceRecord
}

// TraceOversize is an oversize chunk holding items for a data reference.
type TraceOversize struct {
	FirstProcID  uint64
	SecondProcID uint32
	DataRef      uint32
	Items        []TraceItem
}

// Trace describes a synthetic tracev3 file: a header, one catalog and one
// chunkset holding every firehose and oversize chunk.
type Trace struct {
	BootUUID    uuid.UUID
	Numerator   uint32
	Denominator uint32
	Processes   []TraceProcess
	Chunks      []TraceChunk
	Oversize    []TraceOversize
	// Raw stores the chunkset uncompressed.
	Raw bool
}

// Bytes encodes the trace.
func (tr Trace) Bytes() []byte {
	var out []byte
	out = appendChunk(out, 0x1000, tr.header())
	out = appendChunk(out, 0x600b, tr.catalog())

	var inner []byte
	for _, ch := range tr.Chunks {
		inner = appendChunk(inner, 0x6001, firehoseChunk(ch))
	}
	for _, o := range tr.Oversize {
		inner = appendChunk(inner, 0x6002, oversizeChunk(o))
	}
	out = appendChunk(out, 0x600d, chunkset(inner, tr.Raw))
	return out
}

func appendChunk(buf []byte, tag uint32, body []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, tag)
	buf = binary.LittleEndian.AppendUint32(buf, 0x11)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(body)))
	buf = append(buf, body...)
	return appendPadding(buf, len(body))
}

func appendPadding(buf []byte, size int) []byte {
	for size%8 != 0 {
		buf = append(buf, 0)
		size++
	}
	return buf
}

func fixed(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

func (tr Trace) header() []byte {
	numer, denom := tr.Numerator, tr.Denominator
	if numer == 0 || denom == 0 {
		numer, denom = 1, 1
	}
	buf := binary.LittleEndian.AppendUint32(nil, numer)
	buf = binary.LittleEndian.AppendUint32(buf, denom)
	buf = binary.LittleEndian.AppendUint64(buf, 1000)
	buf = binary.LittleEndian.AppendUint64(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)

	buf = binary.LittleEndian.AppendUint32(buf, 0x6100)
	buf = binary.LittleEndian.AppendUint32(buf, 8)
	buf = binary.LittleEndian.AppendUint64(buf, 1000)

	buf = binary.LittleEndian.AppendUint32(buf, 0x6101)
	buf = binary.LittleEndian.AppendUint32(buf, 56)
	buf = append(buf, make([]byte, 8)...)
	buf = append(buf, fixed("23A344", 16)...)
	buf = append(buf, fixed("Mac14,2", 32)...)

	buf = binary.LittleEndian.AppendUint32(buf, 0x6102)
	buf = binary.LittleEndian.AppendUint32(buf, 24)
	buf = append(buf, tr.BootUUID[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, 88)
	buf = binary.LittleEndian.AppendUint32(buf, 0)

	buf = binary.LittleEndian.AppendUint32(buf, 0x6103)
	buf = binary.LittleEndian.AppendUint32(buf, 48)
	return append(buf, fixed("/var/db/timezone/zoneinfo/UTC", 48)...)
}

func (tr Trace) catalog() []byte {
	var ids []uuid.UUID
	index := func(id uuid.UUID) uint16 {
		for i, existing := range ids {
			if existing == id {
				return uint16(i)
			}
		}
		ids = append(ids, id)
		return uint16(len(ids) - 1)
	}
	var strs []byte
	intern := func(s string) uint16 {
		off := uint16(len(strs))
		strs = append(strs, s...)
		strs = append(strs, 0)
		return off
	}

	var procs []byte
	for i, p := range tr.Processes {
		procs = binary.LittleEndian.AppendUint16(procs, uint16(i))
		procs = binary.LittleEndian.AppendUint16(procs, 0)
		procs = binary.LittleEndian.AppendUint16(procs, index(p.MainUUID))
		procs = binary.LittleEndian.AppendUint16(procs, index(p.DSCUUID))
		procs = binary.LittleEndian.AppendUint64(procs, p.FirstProcID)
		procs = binary.LittleEndian.AppendUint32(procs, p.SecondProcID)
		procs = binary.LittleEndian.AppendUint32(procs, p.PID)
		procs = binary.LittleEndian.AppendUint32(procs, 0)
		procs = binary.LittleEndian.AppendUint32(procs, 0)
		procs = binary.LittleEndian.AppendUint32(procs, 0)
		procs = binary.LittleEndian.AppendUint32(procs, 0)
		procs = binary.LittleEndian.AppendUint32(procs, uint32(len(p.Subsystems)))
		procs = binary.LittleEndian.AppendUint32(procs, 0)
		for _, s := range p.Subsystems {
			procs = binary.LittleEndian.AppendUint16(procs, s.ID)
			procs = binary.LittleEndian.AppendUint16(procs, intern(s.Subsystem))
			procs = binary.LittleEndian.AppendUint16(procs, intern(s.Category))
		}
		procs = appendPadding(procs, len(p.Subsystems)*6)
	}

	var sub []byte
	sub = binary.LittleEndian.AppendUint64(sub, 0)
	sub = binary.LittleEndian.AppendUint64(sub, 1<<20)
	sub = binary.LittleEndian.AppendUint32(sub, 0)
	sub = binary.LittleEndian.AppendUint32(sub, 0x100)
	sub = binary.LittleEndian.AppendUint32(sub, 1)
	sub = binary.LittleEndian.AppendUint16(sub, 0)
	sub = binary.LittleEndian.AppendUint32(sub, 1)
	sub = binary.LittleEndian.AppendUint16(sub, 0)
	sub = appendPadding(sub, 4)

	subsystemOffset := 16 * len(ids)
	processOffset := subsystemOffset + len(strs)
	subchunkOffset := processOffset + len(procs)

	buf := binary.LittleEndian.AppendUint16(nil, uint16(subsystemOffset))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(processOffset))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(tr.Processes)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(subchunkOffset))
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = append(buf, make([]byte, 6)...)
	buf = binary.LittleEndian.AppendUint64(buf, 0)
	for _, id := range ids {
		buf = append(buf, id[:]...)
	}
	buf = append(buf, strs...)
	buf = append(buf, procs...)
	return append(buf, sub...)
}

func chunkset(inner []byte, raw bool) []byte {
	var buf []byte
	if !raw {
		dst := make([]byte, lz4.CompressBlockBound(len(inner)))
		n, err := lz4.CompressBlock(inner, dst, nil)
		if err == nil && n > 0 {
			buf = binary.LittleEndian.AppendUint32(buf, 0x31347662)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(inner)))
			buf = binary.LittleEndian.AppendUint32(buf, uint32(n))
			buf = append(buf, dst[:n]...)
			return binary.LittleEndian.AppendUint32(buf, 0x24347662)
		}
	}
	buf = binary.LittleEndian.AppendUint32(buf, 0x2d347662)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(inner)))
	buf = append(buf, inner...)
	return binary.LittleEndian.AppendUint32(buf, 0x24347662)
}

func firehoseChunk(ch TraceChunk) []byte {
	var records []byte
	for _, rec := range ch.Records {
		records = appendRecord(records, rec)
	}
	buf := binary.LittleEndian.AppendUint64(nil, ch.FirstProcID)
	buf = binary.LittleEndian.AppendUint32(buf, ch.SecondProcID)
	buf = append(buf, 0, 0, 0, 0)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(16+len(records)))
	buf = binary.LittleEndian.AppendUint16(buf, 0x1000)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint64(buf, ch.BaseTime)
	return append(buf, records...)
}

func appendRecord(buf []byte, rec TraceRecord) []byte {
	activity := rec.ActivityType
	if activity == 0 {
		activity = 0x4
	}
	formatter := rec.Formatter
	if formatter == 0 {
		formatter = 0x2
	}
	flags := formatter
	if rec.ActivityID != 0 {
		flags |= 0x1
	}
	if rec.LargeOffset != 0 {
		flags |= 0x20
	}
	if rec.SubsystemID != 0 {
		flags |= 0x200
	}
	if rec.DataRef != 0 {
		flags |= 0x800
	}

	var data []byte
	if activity == 0x4 {
		if rec.ActivityID != 0 {
			data = binary.LittleEndian.AppendUint32(data, rec.ActivityID)
			data = binary.LittleEndian.AppendUint32(data, 0x80000000)
		}
		data = binary.LittleEndian.AppendUint32(data, 0x1234)
		switch formatter {
		case 0x8:
			data = binary.LittleEndian.AppendUint16(data, rec.UUIDIndex)
		case 0xa:
			data = append(data, rec.UUID[:]...)
		case 0xc:
			data = binary.LittleEndian.AppendUint16(data, 0)
		}
		if rec.LargeOffset != 0 {
			data = binary.LittleEndian.AppendUint16(data, rec.LargeOffset)
		}
		if rec.SubsystemID != 0 {
			data = binary.LittleEndian.AppendUint16(data, rec.SubsystemID)
		}
		if rec.DataRef != 0 {
			data = binary.LittleEndian.AppendUint16(data, rec.DataRef)
		} else {
			data = append(data, itemsBlob(rec.Items)...)
		}
	} else {
		data = make([]byte, 8)
	}

	buf = append(buf, activity, rec.LogType)
	buf = binary.LittleEndian.AppendUint16(buf, flags)
	buf = binary.LittleEndian.AppendUint32(buf, rec.Location)
	buf = binary.LittleEndian.AppendUint64(buf, rec.ThreadID)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(rec.Delta))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(rec.Delta>>32))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(data)))
	buf = append(buf, data...)
	return appendPadding(buf, len(data))
}

func itemsBlob(items []TraceItem) []byte {
	if len(items) == 0 {
		return nil
	}
	buf := []byte{0x02, uint8(len(items))}
	var strs []byte
	for _, it := range items {
		if it.isString() {
			buf = append(buf, it.Type, uint8(len(it.Text)))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(strs)))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(it.Text)))
			strs = append(strs, it.Text...)
			continue
		}
		buf = append(buf, it.Type, it.Size)
		var v [8]byte
		binary.LittleEndian.PutUint64(v[:], it.Number)
		buf = append(buf, v[:it.Size]...)
	}
	return append(buf, strs...)
}

func oversizeChunk(o TraceOversize) []byte {
	items := itemsBlob(o.Items)
	buf := binary.LittleEndian.AppendUint64(nil, o.FirstProcID)
	buf = binary.LittleEndian.AppendUint32(buf, o.SecondProcID)
	buf = append(buf, 0, 0, 0, 0)
	buf = binary.LittleEndian.AppendUint64(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, o.DataRef)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(items)))
	buf = binary.LittleEndian.AppendUint16(buf, 0)
	return append(buf, items...)
}
