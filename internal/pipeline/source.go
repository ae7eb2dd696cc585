package pipeline

import (
	"iter"

	"batterylog/internal/config"
	"batterylog/internal/unifiedlog"
	"batterylog/internal/walker"
)

// Source supplies the metadata and ordered trace candidates of one log store.
type Source interface {
	// Name describes the store for logs and history.
	Name() string
	Metadata() (*unifiedlog.Metadata, error)
	Candidates() iter.Seq2[walker.Candidate, error]
}

// ArchiveSource reads a .logarchive directory.
type ArchiveSource struct {
	Root string
}

func (s ArchiveSource) Name() string { return s.Root }

func (s ArchiveSource) Metadata() (*unifiedlog.Metadata, error) {
	return unifiedlog.Collect(unifiedlog.ArchiveDirs(s.Root))
}

func (s ArchiveSource) Candidates() iter.Seq2[walker.Candidate, error] {
	return walker.Walk(s.Root)
}

// LiveSource reads the log store of the running system.
type LiveSource struct {
	Dirs      unifiedlog.Dirs
	TraceRoot string
}

// NewLiveSource returns a LiveSource for the configured store locations.
func NewLiveSource(paths config.Paths) LiveSource {
	return LiveSource{
		Dirs: unifiedlog.Dirs{
			Strings:       paths.LiveStringsDir,
			SharedStrings: paths.LiveSharedStringsDir,
			Timesync:      paths.LiveTimesyncDir,
		},
		TraceRoot: paths.LiveTraceRoot,
	}
}

func (s LiveSource) Name() string { return "live:" + s.TraceRoot }

func (s LiveSource) Metadata() (*unifiedlog.Metadata, error) {
	return unifiedlog.Collect(s.Dirs)
}

func (s LiveSource) Candidates() iter.Seq2[walker.Candidate, error] {
	return walker.Walk(s.TraceRoot)
}
