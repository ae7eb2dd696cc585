package tracev3

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"batterylog/internal/testsupport"
)

var (
	bootID = uuid.MustParse("6f1c6c1e-3a5b-4b8e-9d3f-2a1b0c9d8e7f")
	mainID = uuid.MustParse("0a1b2c3d-4e5f-4071-8293-a4b5c6d7e8f9")
	dscID  = uuid.MustParse("11111111-2222-4333-8444-555555555555")
)

func sampleTrace(raw bool) testsupport.Trace {
	return testsupport.Trace{
		BootUUID:    bootID,
		Numerator:   125,
		Denominator: 3,
		Raw:         raw,
		Processes: []testsupport.TraceProcess{{
			FirstProcID:  7,
			SecondProcID: 9,
			PID:          321,
			MainUUID:     mainID,
			DSCUUID:      dscID,
			Subsystems: []testsupport.TraceSubsystem{
				{ID: 1, Subsystem: "com.apple.powerd", Category: "battery"},
			},
		}},
		Chunks: []testsupport.TraceChunk{{
			FirstProcID:  7,
			SecondProcID: 9,
			BaseTime:     5000,
			Records: []testsupport.TraceRecord{
				{
					Location:    0x40,
					LogType:     0x01,
					SubsystemID: 1,
					ThreadID:    42,
					Delta:       1<<32 | 10,
					Items: []testsupport.TraceItem{
						testsupport.Number(4000),
						testsupport.String("ok"),
						testsupport.PrivateString("secret"),
					},
				},
				{ActivityType: ActivityTypeActivity, Location: 0x40},
				{Location: 0x80, DataRef: 3},
			},
		}},
		Oversize: []testsupport.TraceOversize{{
			FirstProcID:  7,
			SecondProcID: 9,
			DataRef:      3,
			Items:        []testsupport.TraceItem{testsupport.String(strings.Repeat("x", 200))},
		}},
	}
}

func TestParseBytesDecodesAllChunks(t *testing.T) {
	for _, raw := range []bool{false, true} {
		data, err := ParseBytes(sampleTrace(raw).Bytes(), 0)
		if err != nil {
			t.Fatalf("raw=%v ParseBytes: %v", raw, err)
		}
		if data.Header.BootUUID != bootID {
			t.Fatalf("boot uuid = %s", data.Header.BootUUID)
		}
		if data.Header.TimebaseNumerator != 125 || data.Header.TimebaseDenominator != 3 {
			t.Fatalf("timebase = %d/%d", data.Header.TimebaseNumerator, data.Header.TimebaseDenominator)
		}
		if data.Header.HardwareModel != "Mac14,2" || data.Header.BuildVersion != "23A344" {
			t.Fatalf("system info = %q %q", data.Header.HardwareModel, data.Header.BuildVersion)
		}
		if len(data.Catalogs) != 1 {
			t.Fatalf("expected 1 catalog, got %d", len(data.Catalogs))
		}
		proc, ok := data.Catalogs[0].Process(7, 9)
		if !ok {
			t.Fatal("process 7/9 not found")
		}
		if proc.MainUUID != mainID || proc.DSCUUID != dscID || proc.PID != 321 {
			t.Fatalf("unexpected process %+v", proc)
		}
		sub, ok := proc.Subsystem(1)
		if !ok || sub.Subsystem != "com.apple.powerd" || sub.Category != "battery" {
			t.Fatalf("subsystem = %+v, %v", sub, ok)
		}
		if len(data.Catalogs[0].Subchunks) != 1 {
			t.Fatalf("expected 1 catalog subchunk, got %d", len(data.Catalogs[0].Subchunks))
		}

		if len(data.Firehose) != 1 || data.Firehose[0].Catalog != 0 {
			t.Fatalf("unexpected firehose chunks %+v", data.Firehose)
		}
		if got := data.RecordCount(); got != 2 {
			t.Fatalf("expected activity record to be dropped, got %d records", got)
		}
		rec := data.Firehose[0].Records[0]
		if rec.FormatLocation != 0x40 || rec.Formatter() != FormatterMainExe || rec.SubsystemID != 1 {
			t.Fatalf("unexpected record %+v", rec)
		}
		if rec.ContinuousTime != 5000+(1<<32|10) {
			t.Fatalf("continuous time = %d", rec.ContinuousTime)
		}
		if len(rec.Items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(rec.Items))
		}
		if !rec.Items[0].IsNumber() || rec.Items[0].Uint() != 4000 {
			t.Fatalf("number item = %+v", rec.Items[0])
		}
		if string(rec.Items[1].Value) != "ok" {
			t.Fatalf("string item = %q", rec.Items[1].Value)
		}
		if !rec.Items[2].Private || rec.Items[2].Value != nil {
			t.Fatalf("private item leaked %+v", rec.Items[2])
		}

		ref := data.Firehose[0].Records[1]
		if !ref.HasDataRef() || ref.DataRef != 3 || len(ref.Items) != 0 {
			t.Fatalf("unexpected data ref record %+v", ref)
		}
		if len(data.Oversize) != 1 || !data.Oversize[0].Matches(3, 7, 9) {
			t.Fatalf("unexpected oversize %+v", data.Oversize)
		}
		if got := string(data.Oversize[0].Items[0].Value); got != strings.Repeat("x", 200) {
			t.Fatalf("oversize item length %d", len(got))
		}
	}
}

func TestParseBytesAnchorFiltersRecords(t *testing.T) {
	data, err := ParseBytes(sampleTrace(false).Bytes(), 0x80)
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if got := data.RecordCount(); got != 1 {
		t.Fatalf("expected 1 record at anchor, got %d", got)
	}
	if data.Firehose[0].Records[0].FormatLocation != 0x80 {
		t.Fatalf("kept record at %#x", data.Firehose[0].Records[0].FormatLocation)
	}
	if len(data.Oversize) != 1 {
		t.Fatal("oversize records must survive anchor filtering")
	}
}

func TestParseBytesRequiresHeader(t *testing.T) {
	full := sampleTrace(true).Bytes()
	// Skip the header chunk: preamble plus its padded body.
	headerSize := 16 + int(uint64(full[8])|uint64(full[9])<<8)
	headerSize += (8 - headerSize%8) % 8
	_, err := ParseBytes(full[headerSize:], 0)
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
}

func TestParseBytesRejectsTruncatedChunk(t *testing.T) {
	full := sampleTrace(true).Bytes()
	if _, err := ParseBytes(full[:len(full)-12], 0); err == nil {
		t.Fatal("expected error for truncated chunkset")
	}
}

func TestChunksetRejectsOversizedLZ4Block(t *testing.T) {
	cases := map[string]struct {
		size       uint32
		compressed int
	}{
		"above cap":   {size: 1 << 30, compressed: 8},
		"above ratio": {size: 4096, compressed: 8},
	}
	for name, tc := range cases {
		var data []byte
		data = binary.LittleEndian.AppendUint32(data, blockLZ4)
		data = binary.LittleEndian.AppendUint32(data, tc.size)
		data = binary.LittleEndian.AppendUint32(data, uint32(tc.compressed))
		data = append(data, make([]byte, tc.compressed)...)
		data = binary.LittleEndian.AppendUint32(data, blockEnd)

		_, err := decompressChunkset(data)
		if err == nil || !strings.Contains(err.Error(), "exceeds bound") {
			t.Errorf("%s: expected bound error, got %v", name, err)
		}
	}
}

func TestParseMapsFile(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "logdata.LiveData.tracev3"), sampleTrace(false).Bytes())
	data, err := Parse(path, 0x40)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := data.RecordCount(); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
	if string(data.Firehose[0].Records[0].Items[1].Value) != "ok" {
		t.Fatal("item value not retained after unmap")
	}
}

func TestParseEmptyAndMissingFiles(t *testing.T) {
	dir := t.TempDir()
	empty := testsupport.WriteFile(t, filepath.Join(dir, "empty.tracev3"), nil)
	if _, err := Parse(empty, 0); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected ErrNoHeader for empty file, got %v", err)
	}
	if _, err := Parse(filepath.Join(dir, "missing.tracev3"), 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestItemIntSignExtends(t *testing.T) {
	it := Item{Type: 0x00, Size: 4, Value: []byte{0xff, 0xff, 0xff, 0xff}}
	if it.Int() != -1 {
		t.Fatalf("Int = %d", it.Int())
	}
	if it.Uint() != 0xffffffff {
		t.Fatalf("Uint = %d", it.Uint())
	}
}
