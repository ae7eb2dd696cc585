package pipeline

import (
	"fmt"

	"batterylog/internal/tracev3"
	"batterylog/internal/unifiedlog"
)

// Decoder turns a trace file into raw records filtered on the anchor.
type Decoder interface {
	Decode(path string, anchor uint32) (*tracev3.RawTraceData, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(path string, anchor uint32) (*tracev3.RawTraceData, error)

func (f DecoderFunc) Decode(path string, anchor uint32) (*tracev3.RawTraceData, error) {
	return f(path, anchor)
}

// Reconstructor builds log entries from raw records. Entries whose oversize
// payload is not yet known are returned as deferred when excludeMissing is
// set.
type Reconstructor interface {
	Reconstruct(raw *tracev3.RawTraceData, meta *unifiedlog.Metadata, excludeMissing bool, anchor uint32) (entries, deferred []unifiedlog.LogEntry)
}

// ReconstructorFunc adapts a function to Reconstructor.
type ReconstructorFunc func(raw *tracev3.RawTraceData, meta *unifiedlog.Metadata, excludeMissing bool, anchor uint32) ([]unifiedlog.LogEntry, []unifiedlog.LogEntry)

func (f ReconstructorFunc) Reconstruct(raw *tracev3.RawTraceData, meta *unifiedlog.Metadata, excludeMissing bool, anchor uint32) ([]unifiedlog.LogEntry, []unifiedlog.LogEntry) {
	return f(raw, meta, excludeMissing, anchor)
}

var (
	defaultDecoder       Decoder       = DecoderFunc(tracev3.Parse)
	defaultReconstructor Reconstructor = ReconstructorFunc(unifiedlog.Build)
)

// State is a step of the extraction state machine.
type State int

const (
	StateInit State = iota
	StateCollectMetadata
	StateTryLive
	StateTrySpecial
	StateTryPersist
	StateDone
	StateNoResult
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateCollectMetadata:
		return "collect_metadata"
	case StateTryLive:
		return "try_live"
	case StateTrySpecial:
		return "try_special"
	case StateTryPersist:
		return "try_persist"
	case StateDone:
		return "done"
	case StateNoResult:
		return "no_result"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
