// Package extract pulls the battery MaxCapacity value out of reconstructed
// log entries.
package extract

import (
	"errors"
	"fmt"
	"regexp"

	"batterylog/internal/unifiedlog"
)

// Pattern matches the battery health message and captures MaxCapacity.
var Pattern = regexp.MustCompile(`Battery Health:.*MaxCapacity:(\d+)`)

// ErrMismatch reports a non-empty message that does not carry the value.
var ErrMismatch = errors.New("message does not contain MaxCapacity")

// Extractor finds the MaxCapacity value in a batch of entries.
type Extractor struct {
	// Strict stops at the first entry with a non-empty message and fails
	// when that message does not match.
	Strict bool
}

// Match is a successfully extracted value.
type Match struct {
	Value   string
	Message string
	Index   int
}

// Value returns the capture from a single message.
func Value(message string) (string, bool) {
	m := Pattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Extract scans entries in order. ok is false when no entry yielded a value.
// In strict mode a mismatching first message returns an error wrapping
// ErrMismatch.
func (e Extractor) Extract(entries []unifiedlog.LogEntry) (Match, bool, error) {
	for i, entry := range entries {
		if entry.Message == "" {
			continue
		}
		if v, ok := Value(entry.Message); ok {
			return Match{Value: v, Message: entry.Message, Index: i}, true, nil
		}
		if e.Strict {
			return Match{}, false, fmt.Errorf("%w: %q", ErrMismatch, entry.Message)
		}
	}
	return Match{}, false, nil
}
