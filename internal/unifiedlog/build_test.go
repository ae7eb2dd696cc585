package unifiedlog

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"batterylog/internal/dsc"
	"batterylog/internal/testsupport"
	"batterylog/internal/tracev3"
)

func batteryMetadata(t *testing.T) *Metadata {
	t.Helper()
	root := testsupport.NewArchive(t)
	testsupport.WriteBatteryMetadata(t, root)
	meta, err := Collect(ArchiveDirs(root))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return meta
}

func decode(t *testing.T, tr testsupport.Trace, anchor uint32) *tracev3.RawTraceData {
	t.Helper()
	raw, err := tracev3.ParseBytes(tr.Bytes(), anchor)
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	return raw
}

func TestBuildRendersBatteryRecord(t *testing.T) {
	meta := batteryMetadata(t)
	raw := decode(t, testsupport.BatteryTrace(87), 0)

	entries, deferred := Build(raw, meta, true, 0)
	if len(deferred) != 0 {
		t.Fatalf("unexpected deferred entries: %d", len(deferred))
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "Sleep reason: Maintenance" {
		t.Fatalf("noise message = %q", entries[0].Message)
	}
	got := entries[1]
	if got.Message != "Updated Battery Health: Fcc:4000 MaxCapacity:87 CycleCount:120" {
		t.Fatalf("battery message = %q", got.Message)
	}
	if got.FormatString != testsupport.BatteryFormat {
		t.Fatalf("format string = %q", got.FormatString)
	}
	if got.Process != "/usr/libexec/powerd" || got.Library != "/usr/libexec/powerd" {
		t.Fatalf("process/library = %q %q", got.Process, got.Library)
	}
	if got.PID != 88 || got.BootUUID != testsupport.FixtureBootUUID {
		t.Fatalf("pid/boot = %d %s", got.PID, got.BootUUID)
	}
	if want := testsupport.FixtureBootTime + 10 + 1_000_000; got.Time != want {
		t.Fatalf("time = %d, want %d", got.Time, want)
	}
}

func TestBuildHonorsAnchor(t *testing.T) {
	meta := batteryMetadata(t)
	raw := decode(t, testsupport.BatteryTrace(87, 86), 0)

	entries, _ := Build(raw, meta, true, testsupport.BatteryLocation())
	if len(entries) != 2 {
		t.Fatalf("expected 2 battery entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.FormatLocation != testsupport.BatteryLocation() {
			t.Fatalf("entry at %#x escaped the anchor", e.FormatLocation)
		}
	}
}

func TestBuildOversizeReferences(t *testing.T) {
	meta := batteryMetadata(t)
	tr := testsupport.BatteryTrace()
	tr.Chunks[0].Records = append(tr.Chunks[0].Records, testsupport.TraceRecord{
		Location: testsupport.BatteryLocation(),
		DataRef:  5,
	})

	t.Run("deferred when missing", func(t *testing.T) {
		raw := decode(t, tr, testsupport.BatteryLocation())
		entries, deferred := Build(raw, meta, true, testsupport.BatteryLocation())
		if len(entries) != 0 || len(deferred) != 1 {
			t.Fatalf("entries=%d deferred=%d", len(entries), len(deferred))
		}
	})

	t.Run("placeholder when not excluded", func(t *testing.T) {
		raw := decode(t, tr, testsupport.BatteryLocation())
		entries, deferred := Build(raw, meta, false, testsupport.BatteryLocation())
		if len(entries) != 1 || len(deferred) != 0 {
			t.Fatalf("entries=%d deferred=%d", len(entries), len(deferred))
		}
		if entries[0].Message != missingMessage {
			t.Fatalf("message = %q", entries[0].Message)
		}
	})

	t.Run("resolved from carried oversize", func(t *testing.T) {
		raw := decode(t, tr, testsupport.BatteryLocation())
		carried := decode(t, testsupport.Trace{
			BootUUID: testsupport.FixtureBootUUID,
			Oversize: []testsupport.TraceOversize{{
				FirstProcID:  1,
				SecondProcID: 2,
				DataRef:      5,
				Items:        []testsupport.TraceItem{testsupport.Number(4100), testsupport.Number(91), testsupport.Number(300)},
			}},
		}, 0)
		raw.Oversize = append(raw.Oversize, carried.Oversize...)

		entries, deferred := Build(raw, meta, true, testsupport.BatteryLocation())
		if len(entries) != 1 || len(deferred) != 0 {
			t.Fatalf("entries=%d deferred=%d", len(entries), len(deferred))
		}
		if !strings.Contains(entries[0].Message, "MaxCapacity:91") {
			t.Fatalf("message = %q", entries[0].Message)
		}
	})
}

func TestBuildSharedCacheFormat(t *testing.T) {
	cacheID := uuid.MustParse("11111111-2222-4333-8444-555555555555")
	imageID := uuid.MustParse("99999999-8888-4777-8666-555555555555")
	shared, err := dsc.Parse(testsupport.DSC(2, []testsupport.DSCRange{
		{Offset: 0x2000, Strings: []string{"cache says %s"}},
	}, []uuid.UUID{imageID}))
	if err != nil {
		t.Fatalf("dsc.Parse: %v", err)
	}
	shared.UUID = cacheID
	meta := NewMetadata(nil, []*dsc.Strings{shared}, nil)

	tr := testsupport.Trace{
		BootUUID: testsupport.FixtureBootUUID,
		Processes: []testsupport.TraceProcess{{
			FirstProcID: 1, SecondProcID: 2, MainUUID: testsupport.FixtureMainUUID, DSCUUID: cacheID,
		}},
		Chunks: []testsupport.TraceChunk{{FirstProcID: 1, SecondProcID: 2, Records: []testsupport.TraceRecord{{
			Formatter: tracev3.FormatterSharedCache,
			Location:  0x2000,
			Items:     []testsupport.TraceItem{testsupport.String("hello")},
		}}}},
	}
	entries, _ := Build(decode(t, tr, 0), meta, true, 0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "cache says hello" {
		t.Fatalf("message = %q", entries[0].Message)
	}
	if entries[0].Library != "/usr/lib/libfixture0.dylib" || entries[0].LibraryUUID != imageID {
		t.Fatalf("library = %q %s", entries[0].Library, entries[0].LibraryUUID)
	}
	if entries[0].Time != 0 {
		t.Fatalf("unknown boot should leave time unset, got %d", entries[0].Time)
	}
}

func TestBuildReportsUnresolvedFormat(t *testing.T) {
	meta := NewMetadata(nil, nil, nil)
	entries, _ := Build(decode(t, testsupport.BatteryTrace(87), 0), meta, true, 0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !strings.HasPrefix(entries[1].Message, "Error: invalid offset") {
		t.Fatalf("message = %q", entries[1].Message)
	}
}

func TestCollectFailsWithoutSharedStrings(t *testing.T) {
	root := t.TempDir()
	if _, err := Collect(ArchiveDirs(root)); err == nil {
		t.Fatal("expected error when dsc directory is missing")
	}
}

func TestLogTypeString(t *testing.T) {
	if LogTypeFault.String() != "Fault" || LogType(0x42).String() != "Unknown" {
		t.Fatal("unexpected log type names")
	}
}
