package preflight

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"batterylog/internal/config"
	"batterylog/internal/unifiedlog"
	"batterylog/internal/walker"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Path     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunLive checks the configured live store locations.
func RunLive(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("String tables", cfg.Paths.LiveStringsDir),
		CheckDirectoryAccess("Shared strings", cfg.Paths.LiveSharedStringsDir),
		CheckDirectoryAccess("Timesync", cfg.Paths.LiveTimesyncDir),
		CheckDirectoryAccess("Trace root", cfg.Paths.LiveTraceRoot),
		CheckFileReadable("Live buffer", filepath.Join(cfg.Paths.LiveTraceRoot, walker.LiveFile), true),
	}
}

// RunArchive checks a .logarchive directory.
func RunArchive(root string) []Result {
	dirs := unifiedlog.ArchiveDirs(root)
	return []Result{
		CheckDirectoryAccess("Archive", dirs.Strings),
		CheckDirectoryAccess("Shared strings", dirs.SharedStrings),
		CheckDirectoryAccess("Timesync", dirs.Timesync),
	}
}

// Err joins the failed checks into one error, or returns nil when every
// check passed.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return errors.New("preflight failed: " + strings.Join(failed, "; "))
}
