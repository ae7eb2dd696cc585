package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

// BatteryFormat is the powerd format string the extractor looks for.
const BatteryFormat = "Updated Battery Health: Fcc:%d MaxCapacity:%d CycleCount:%d"

var (
	// FixtureBootUUID is the boot every fixture trace and timesync file uses.
	FixtureBootUUID = uuid.MustParse("6f1c6c1e-3a5b-4b8e-9d3f-2a1b0c9d8e7f")
	// FixtureMainUUID identifies the powerd image in fixture catalogs.
	FixtureMainUUID = uuid.MustParse("0a1b2c3d-4e5f-4071-8293-a4b5c6d7e8f9")
)

// FixtureBootTime is the wall clock time of the fixture boot in nanoseconds.
const FixtureBootTime int64 = 1_700_000_000_000_000_000

// BatteryRanges is the powerd string table used by fixtures.
func BatteryRanges() []StringRange {
	return []StringRange{
		{Start: 0x100, Strings: []string{"powerd started", BatteryFormat, "Sleep reason: %s"}},
	}
}

// BatteryLocation is the virtual offset of BatteryFormat.
func BatteryLocation() uint32 { return StringOffset(BatteryRanges(), 0, 1) }

// NoiseLocation is the virtual offset of a format string unrelated to the
// battery.
func NoiseLocation() uint32 { return StringOffset(BatteryRanges(), 0, 2) }

// WriteBatteryMetadata stores the powerd uuidtext table and a timesync file
// for FixtureBootUUID below root.
func WriteBatteryMetadata(t testing.TB, root string) {
	t.Helper()

	WriteUUIDText(t, root, FixtureMainUUID, UUIDText(BatteryRanges(), "/usr/libexec/powerd"))
	WriteFile(t, filepath.Join(root, "timesync", "0000000000000001.timesync"), Timesync(TimesyncBoot{
		BootUUID:    FixtureBootUUID,
		Numerator:   1,
		Denominator: 1,
		BootTime:    FixtureBootTime,
		Records:     []TimesyncRecord{{KernelTime: 0, WallTime: FixtureBootTime}},
	}))
}

// BatteryTrace logs one battery health record per capacity, in order, after
// an unrelated record.
func BatteryTrace(capacities ...uint64) Trace {
	records := []TraceRecord{{
		Location: NoiseLocation(),
		Items:    []TraceItem{String("Maintenance")},
	}}
	for i, capacity := range capacities {
		records = append(records, TraceRecord{
			Location: BatteryLocation(),
			Delta:    uint64(i+1) * 1_000_000,
			Items:    []TraceItem{Number(4000), Number(capacity), Number(120)},
		})
	}
	return Trace{
		BootUUID:    FixtureBootUUID,
		Numerator:   1,
		Denominator: 1,
		Processes: []TraceProcess{{
			FirstProcID:  1,
			SecondProcID: 2,
			PID:          88,
			MainUUID:     FixtureMainUUID,
			Subsystems:   []TraceSubsystem{{ID: 1, Subsystem: "com.apple.powerd", Category: "battery"}},
		}},
		Chunks: []TraceChunk{{FirstProcID: 1, SecondProcID: 2, BaseTime: 10, Records: records}},
	}
}

// WriteTrace encodes tr to path.
func WriteTrace(t testing.TB, path string, tr Trace) string {
	t.Helper()
	return WriteFile(t, path, tr.Bytes())
}
