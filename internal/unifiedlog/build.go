package unifiedlog

import (
	"fmt"

	"github.com/google/uuid"

	"batterylog/internal/dsc"
	"batterylog/internal/timesync"
	"batterylog/internal/tracev3"
)

const missingMessage = "<Missing message data>"

// Build reconstructs the log entries of raw. Records whose format string
// location differs from a non-zero anchor are ignored. When excludeMissing is
// set, records that reference oversize data not present in raw.Oversize are
// returned in deferred instead of entries.
func Build(raw *tracev3.RawTraceData, meta *Metadata, excludeMissing bool, anchor uint32) (entries, deferred []LogEntry) {
	if raw == nil {
		return nil, nil
	}
	for i := range raw.Firehose {
		fc := &raw.Firehose[i]
		var proc *tracev3.ProcessInfo
		var catalog *tracev3.Catalog
		if fc.Catalog >= 0 && fc.Catalog < len(raw.Catalogs) {
			catalog = &raw.Catalogs[fc.Catalog]
			proc, _ = catalog.Process(fc.FirstProcID, fc.SecondProcID)
		}

		for j := range fc.Records {
			rec := &fc.Records[j]
			if anchor != 0 && rec.FormatLocation != anchor {
				continue
			}
			entry := LogEntry{
				Time:           timesync.WallTime(meta.Boots, raw.Header.BootUUID, rec.ContinuousTime),
				ContinuousTime: rec.ContinuousTime,
				BootUUID:       raw.Header.BootUUID,
				ThreadID:       rec.ThreadID,
				LogType:        LogType(rec.LogType),
				FormatLocation: rec.FormatLocation,
			}
			if proc != nil {
				entry.PID = proc.PID
				entry.EUID = proc.EffectiveUID
				entry.ProcessUUID = proc.MainUUID
				if table, ok := meta.StringTable(proc.MainUUID); ok {
					entry.Process = table.LibraryPath
				}
				if rec.SubsystemID != 0 {
					if sub, ok := proc.Subsystem(rec.SubsystemID); ok {
						entry.Subsystem = sub.Subsystem
						entry.Category = sub.Category
					}
				}
			}

			items := rec.Items
			missing := false
			if rec.HasDataRef() {
				if o, ok := findOversize(raw.Oversize, uint32(rec.DataRef), fc.FirstProcID, fc.SecondProcID); ok {
					items = o.Items
				} else {
					missing = true
				}
			}
			if missing && excludeMissing {
				deferred = append(deferred, entry)
				continue
			}

			format, err := resolveFormat(meta, catalog, proc, rec, &entry)
			switch {
			case err != nil:
				entry.Message = "Error: " + err.Error()
			case missing:
				entry.FormatString = format
				entry.Message = missingMessage
			default:
				entry.FormatString = format
				entry.Message = Render(format, items)
			}
			entries = append(entries, entry)
		}
	}
	return entries, deferred
}

func findOversize(list []tracev3.Oversize, dataRef uint32, first uint64, second uint32) (*tracev3.Oversize, bool) {
	for i := range list {
		if list[i].Matches(dataRef, first, second) {
			return &list[i], true
		}
	}
	return nil, false
}

// resolveFormat finds the record's format string and fills the library
// fields of entry.
func resolveFormat(meta *Metadata, catalog *tracev3.Catalog, proc *tracev3.ProcessInfo, rec *tracev3.FirehoseRecord, entry *LogEntry) (string, error) {
	location := uint64(rec.FormatLocation)
	if rec.Flags&tracev3.FlagLargeOffset != 0 {
		location |= uint64(rec.LargeOffset) << 32
	}

	switch rec.Formatter() {
	case tracev3.FormatterSharedCache, tracev3.FormatterLargeSharedCache:
		var cacheID uuid.UUID
		if proc != nil {
			cacheID = proc.DSCUUID
		}
		if shared, ok := meta.Shared(cacheID); ok {
			if s, ok := sharedString(shared, location, entry); ok {
				return s, nil
			}
		}
		for _, shared := range meta.SharedStrings {
			if s, ok := sharedString(shared, location, entry); ok {
				return s, nil
			}
		}
		return "", fmt.Errorf("invalid shared string offset %d for UUID %s", location, cacheID)
	}

	var image uuid.UUID
	switch rec.Formatter() {
	case tracev3.FormatterUUIDRelative:
		image = rec.UUID
	case tracev3.FormatterAbsolute:
		if catalog != nil && int(rec.UUIDIndex) < len(catalog.UUIDs) {
			image = catalog.UUIDs[rec.UUIDIndex]
		}
	default:
		if proc != nil {
			image = proc.MainUUID
		}
	}
	if location > uint64(^uint32(0)) {
		return "", fmt.Errorf("invalid offset %d for UUID %s", location, image)
	}
	if table, ok := meta.StringTable(image); ok {
		if s, ok := table.StringAt(uint32(location)); ok {
			entry.Library = table.LibraryPath
			entry.LibraryUUID = table.UUID
			return s, nil
		}
	}
	for _, table := range meta.Strings {
		if s, ok := table.StringAt(uint32(location)); ok {
			entry.Library = table.LibraryPath
			entry.LibraryUUID = table.UUID
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid offset %d for UUID %s", location, image)
}

func sharedString(shared *dsc.Strings, location uint64, entry *LogEntry) (string, bool) {
	for _, rng := range shared.Ranges {
		if location < rng.Offset || location >= rng.Offset+uint64(rng.Size) {
			continue
		}
		s, ok := shared.StringAt(location)
		if !ok {
			return "", false
		}
		if img, ok := shared.ImageFor(rng); ok {
			entry.Library = img.Path
			entry.LibraryUUID = img.UUID
		}
		return s, true
	}
	return "", false
}
