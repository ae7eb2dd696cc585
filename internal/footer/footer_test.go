package footer

import (
	"testing"

	"github.com/google/uuid"

	"batterylog/internal/testsupport"
	"batterylog/internal/uuidtext"
)

func table(t *testing.T, ranges []testsupport.StringRange) *uuidtext.File {
	t.Helper()
	f, err := uuidtext.Parse(testsupport.UUIDText(ranges, "/usr/libexec/powerd"))
	if err != nil {
		t.Fatalf("uuidtext.Parse: %v", err)
	}
	f.UUID = uuid.New()
	return f
}

func TestScanComputesVirtualOffset(t *testing.T) {
	ranges := []testsupport.StringRange{
		{Start: 0x40, Strings: []string{"unrelated", "also unrelated"}},
		testsupport.BatteryRanges()[0],
	}
	f := table(t, ranges)

	got := Scan([]*uuidtext.File{f})
	if want := testsupport.StringOffset(ranges, 1, 1); got.Offset != want {
		t.Fatalf("Offset = %#x, want %#x", got.Offset, want)
	}
	if got.Offset != testsupport.BatteryLocation() {
		t.Fatalf("Offset = %#x, want battery location %#x", got.Offset, testsupport.BatteryLocation())
	}
	if got.Text != testsupport.BatteryFormat || got.Table != f.UUID || got.Matches != 1 {
		t.Fatalf("unexpected anchor %+v", got)
	}
	if got.Library != "/usr/libexec/powerd" {
		t.Fatalf("Library = %q", got.Library)
	}
}

func TestScanWithoutMarkerReturnsZero(t *testing.T) {
	f := table(t, []testsupport.StringRange{
		{Start: 0x10, Strings: []string{"Updated Battery Health only", "MaxCapacity: alone"}},
	})
	got := Scan([]*uuidtext.File{f})
	if got.Offset != 0 || got.Found() {
		t.Fatalf("expected zero anchor, got %+v", got)
	}
	if got := Scan(nil); got.Offset != 0 {
		t.Fatalf("expected zero anchor for no tables, got %+v", got)
	}
}

func TestScanLastMatchWins(t *testing.T) {
	first := table(t, []testsupport.StringRange{
		{Start: 0x100, Strings: []string{"Updated Battery Health: MaxCapacity:%d"}},
	})
	second := table(t, []testsupport.StringRange{
		{Start: 0x900, Strings: []string{"x", "Updated Battery Health v2 MaxCapacity:%u"}},
	})

	got := Scan([]*uuidtext.File{first, second})
	if got.Offset != 0x902 {
		t.Fatalf("Offset = %#x, want 0x902", got.Offset)
	}
	if got.Table != second.UUID || got.Matches != 2 {
		t.Fatalf("unexpected anchor %+v", got)
	}

	got = Scan([]*uuidtext.File{second, first})
	if got.Offset != 0x100 || got.Table != first.UUID {
		t.Fatalf("reversed order: %+v", got)
	}
}

func TestScanStopsDescriptorAtFirstMatch(t *testing.T) {
	f := table(t, []testsupport.StringRange{
		{Start: 0x10, Strings: []string{"Updated Battery Health MaxCapacity:%d", "Updated Battery Health again MaxCapacity:%d"}},
		{Start: 0x800, Strings: []string{"nothing here"}},
	})
	got := Scan([]*uuidtext.File{f})
	if got.Offset != 0x10 || got.Matches != 1 {
		t.Fatalf("expected only the first match of the descriptor, got %+v", got)
	}
}

func TestScanResetsCursorPerTable(t *testing.T) {
	padding := table(t, []testsupport.StringRange{
		{Start: 0, Strings: []string{"a fairly long string that advances the cursor"}},
	})
	f := table(t, testsupport.BatteryRanges())
	got := Scan([]*uuidtext.File{padding, f})
	if got.Offset != testsupport.BatteryLocation() {
		t.Fatalf("Offset = %#x, want %#x", got.Offset, testsupport.BatteryLocation())
	}
}

func TestScanDoesNotJoinStringsAcrossDescriptors(t *testing.T) {
	head := "Updated Battery Health "
	tail := "MaxCapacity:%d\x00"
	f := &uuidtext.File{
		UUID: uuid.New(),
		Descriptors: []uuidtext.Descriptor{
			{RangeStartOffset: 0x10, EntrySize: uint32(len(head))},
			{RangeStartOffset: 0x40, EntrySize: uint32(len(tail))},
		},
		Footer: []byte(head + tail),
	}
	if got := Scan([]*uuidtext.File{f}); got.Found() {
		t.Fatalf("unterminated descriptor joined its neighbour: %+v", got)
	}
}
