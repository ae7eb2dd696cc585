package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFatalMetadata marks a metadata collection failure. The run aborts.
	ErrFatalMetadata = errors.New("metadata collection failed")
	// ErrFatalTrace marks a decode failure of a file whose loss cannot be
	// tolerated, such as the live buffer.
	ErrFatalTrace = errors.New("trace decode failed")
	// ErrRecoverableFile marks a single trace file that could not be decoded.
	// The file is skipped.
	ErrRecoverableFile = errors.New("trace file skipped")
	// ErrExtractionMismatch marks a message that should have carried the
	// value but did not.
	ErrExtractionMismatch = errors.New("extraction mismatch")
	ErrConfiguration      = errors.New("configuration error")
	ErrValidation         = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrRecoverableFile
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrRecoverableFile)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
