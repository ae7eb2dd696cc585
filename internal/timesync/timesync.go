// Package timesync parses timesync files, which pair mach continuous time
// with wall clock time for every boot so log records can be dated.
package timesync

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"batterylog/internal/binread"
)

const (
	// BootSignature starts a boot record.
	BootSignature uint16 = 0xbbb0
	// RecordSignature ("Ts ") starts a sync record.
	RecordSignature uint32 = 0x207354

	bootRecordSize = 48
	syncRecordSize = 32
)

// Record is one kernel time to wall time sample.
type Record struct {
	Unknown         uint32
	KernelTime      uint64
	WallTime        int64
	Timezone        uint32
	DaylightSavings uint32
}

// Boot is a boot record and the sync records that follow it.
type Boot struct {
	HeaderSize          uint16
	Unknown             uint32
	BootUUID            uuid.UUID
	TimebaseNumerator   uint32
	TimebaseDenominator uint32
	BootTime            int64
	TimezoneOffsetMins  uint32
	DaylightSavings     uint32
	Records             []Record
}

// Parse decodes every boot in a timesync file image.
func Parse(data []byte) ([]Boot, error) {
	r := binread.New(data)
	var boots []Boot
	for r.Len() > 0 {
		if r.Len() < 4 {
			return boots, fmt.Errorf("timesync: %d trailing bytes at offset %d", r.Len(), r.Offset())
		}
		head := r.Remaining()
		switch {
		case binary.LittleEndian.Uint16(head) == BootSignature:
			boot, err := parseBoot(r)
			if err != nil {
				return boots, err
			}
			boots = append(boots, boot)
		case binary.LittleEndian.Uint32(head) == RecordSignature:
			if len(boots) == 0 {
				return nil, fmt.Errorf("timesync: sync record before boot record at offset %d", r.Offset())
			}
			rec, err := parseRecord(r)
			if err != nil {
				return boots, err
			}
			last := &boots[len(boots)-1]
			last.Records = append(last.Records, rec)
		default:
			return boots, fmt.Errorf("timesync: unknown signature at offset %d", r.Offset())
		}
	}
	return boots, nil
}

func parseBoot(r *binread.Reader) (Boot, error) {
	start := r.Offset()
	if r.Len() < bootRecordSize {
		return Boot{}, fmt.Errorf("timesync boot record at %d: truncated", start)
	}
	var b Boot
	_ = r.Skip(2)
	b.HeaderSize, _ = r.U16()
	b.Unknown, _ = r.U32()
	b.BootUUID, _ = r.UUID()
	b.TimebaseNumerator, _ = r.U32()
	b.TimebaseDenominator, _ = r.U32()
	b.BootTime, _ = r.I64()
	b.TimezoneOffsetMins, _ = r.U32()
	b.DaylightSavings, _ = r.U32()
	if b.HeaderSize > bootRecordSize {
		if err := r.Skip(int(b.HeaderSize) - bootRecordSize); err != nil {
			return Boot{}, fmt.Errorf("timesync boot record at %d: %w", start, err)
		}
	}
	return b, nil
}

func parseRecord(r *binread.Reader) (Record, error) {
	if r.Len() < syncRecordSize {
		return Record{}, fmt.Errorf("timesync record at %d: truncated", r.Offset())
	}
	var rec Record
	_ = r.Skip(4)
	rec.Unknown, _ = r.U32()
	rec.KernelTime, _ = r.U64()
	rec.WallTime, _ = r.I64()
	rec.Timezone, _ = r.U32()
	rec.DaylightSavings, _ = r.U32()
	return rec, nil
}

// Collect parses every *.timesync file in dir in name order.
func Collect(dir string) ([]Boot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read timesync directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ".timesync") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var boots []Boot
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read timesync %s: %w", path, err)
		}
		parsed, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse timesync %s: %w", path, err)
		}
		boots = append(boots, parsed...)
	}
	return boots, nil
}

// WallTime converts a continuous time from the given boot into nanoseconds
// since the Unix epoch. It returns 0 when the boot is unknown.
func WallTime(boots []Boot, bootUUID uuid.UUID, continuous uint64) int64 {
	for i := range boots {
		b := &boots[i]
		if b.BootUUID != bootUUID {
			continue
		}
		numer, denom := uint64(b.TimebaseNumerator), uint64(b.TimebaseDenominator)
		if numer == 0 || denom == 0 {
			numer, denom = 1, 1
		}
		if len(b.Records) == 0 {
			return b.BootTime + int64(continuous*numer/denom)
		}
		rec := b.Records[0]
		for _, candidate := range b.Records {
			if candidate.KernelTime > continuous {
				break
			}
			rec = candidate
		}
		delta := int64(continuous) - int64(rec.KernelTime)
		return rec.WallTime + delta*int64(numer)/int64(denom)
	}
	return 0
}
