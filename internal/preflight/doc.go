// Package preflight provides readiness checks for the log stores batterylog
// reads.
//
// These checks run before a search starts:
//   - Live mode checks the configured system store locations, which usually
//     require elevated privileges to read.
//   - Archive mode checks the .logarchive root and its metadata directories.
//
// The CLI refuses to start a run when a required check fails, so permission
// problems surface as one clear message instead of a failed metadata parse.
package preflight
