package unifiedlog

import (
	"time"

	"github.com/google/uuid"
)

// LogType is the severity recorded with a firehose record.
type LogType uint8

// Known log types.
const (
	LogTypeDefault LogType = 0x00
	LogTypeInfo    LogType = 0x01
	LogTypeDebug   LogType = 0x02
	LogTypeError   LogType = 0x10
	LogTypeFault   LogType = 0x11
)

func (t LogType) String() string {
	switch t {
	case LogTypeDefault:
		return "Default"
	case LogTypeInfo:
		return "Info"
	case LogTypeDebug:
		return "Debug"
	case LogTypeError:
		return "Error"
	case LogTypeFault:
		return "Fault"
	}
	return "Unknown"
}

// LogEntry is one reconstructed log record.
type LogEntry struct {
	// Time is nanoseconds since the Unix epoch, or 0 when the boot is not in
	// the timesync data.
	Time           int64
	ContinuousTime uint64
	BootUUID       uuid.UUID
	ThreadID       uint64
	PID            uint32
	EUID           uint32
	LogType        LogType
	Subsystem      string
	Category       string
	Process        string
	ProcessUUID    uuid.UUID
	Library        string
	LibraryUUID    uuid.UUID
	FormatLocation uint32
	FormatString   string
	Message        string
}

// Timestamp returns Time as a UTC time.Time.
func (e LogEntry) Timestamp() time.Time {
	return time.Unix(0, e.Time).UTC()
}
