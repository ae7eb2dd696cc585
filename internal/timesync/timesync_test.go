package timesync

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"batterylog/internal/testsupport"
)

func TestParseBootsAndRecords(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	data := testsupport.Timesync(
		testsupport.TimesyncBoot{
			BootUUID:    first,
			Numerator:   125,
			Denominator: 3,
			BootTime:    1_600_000_000_000_000_000,
			Records: []testsupport.TimesyncRecord{
				{KernelTime: 0, WallTime: 1_600_000_000_000_000_000},
				{KernelTime: 24_000_000, WallTime: 1_600_000_001_000_000_000},
			},
		},
		testsupport.TimesyncBoot{BootUUID: second, Numerator: 1, Denominator: 1},
	)

	boots, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(boots) != 2 {
		t.Fatalf("expected 2 boots, got %d", len(boots))
	}
	if boots[0].BootUUID != first || boots[1].BootUUID != second {
		t.Fatalf("unexpected boot uuids %s %s", boots[0].BootUUID, boots[1].BootUUID)
	}
	if len(boots[0].Records) != 2 || len(boots[1].Records) != 0 {
		t.Fatalf("unexpected record counts %d %d", len(boots[0].Records), len(boots[1].Records))
	}
	if boots[0].TimebaseNumerator != 125 || boots[0].TimebaseDenominator != 3 {
		t.Fatalf("unexpected timebase %d/%d", boots[0].TimebaseNumerator, boots[0].TimebaseDenominator)
	}
}

func TestParseRejectsUnknownSignature(t *testing.T) {
	if _, err := Parse([]byte{1, 2, 3, 4, 5, 6, 7, 8}); err == nil {
		t.Fatal("expected error for unknown signature")
	}
}

func TestWallTimeUsesPrecedingRecord(t *testing.T) {
	boot := uuid.New()
	boots := []Boot{{
		BootUUID:            boot,
		TimebaseNumerator:   125,
		TimebaseDenominator: 3,
		Records: []Record{
			{KernelTime: 0, WallTime: 1_000},
			{KernelTime: 3_000, WallTime: 500_000},
		},
	}}

	if got := WallTime(boots, boot, 3_003); got != 500_125 {
		t.Fatalf("WallTime = %d, want 500125", got)
	}
	if got := WallTime(boots, boot, 30); got != 2_250 {
		t.Fatalf("WallTime = %d, want 2250", got)
	}
	if got := WallTime(boots, uuid.New(), 30); got != 0 {
		t.Fatalf("unknown boot should give 0, got %d", got)
	}
}

func TestCollectReadsTimesyncFilesOnly(t *testing.T) {
	dir := t.TempDir()
	boot := uuid.New()
	testsupport.WriteFile(t, filepath.Join(dir, "0000000000000002.timesync"), testsupport.Timesync(testsupport.TimesyncBoot{BootUUID: boot}))
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), []byte("ignored"))

	boots, err := Collect(dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(boots) != 1 || boots[0].BootUUID != boot {
		t.Fatalf("unexpected boots: %+v", boots)
	}
}

func TestCollectMissingDirectory(t *testing.T) {
	if _, err := Collect(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
