package history

import "time"

// Mode is how the log store was reached.
type Mode string

const (
	ModeArchive Mode = "archive"
	ModeLive    Mode = "live"
)

// Run is one recorded extraction.
type Run struct {
	ID           int64
	RunID        string
	Source       string
	Mode         Mode
	Found        bool
	Value        string
	Category     string
	TracePath    string
	TraceDigest  string
	AnchorOffset uint32
	FilesVisited int
	FilesSkipped int
	Deferred     int
	FinalState   string
	Elapsed      time.Duration
	CreatedAt    time.Time
}
