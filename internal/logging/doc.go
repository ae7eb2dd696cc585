// Package logging assembles structured slog loggers and formatting helpers used
// across batterylog.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, stages, and trace categories. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
//
// Logs always go to stderr (plus an optional file) so stdout stays reserved
// for the extracted value.
package logging
