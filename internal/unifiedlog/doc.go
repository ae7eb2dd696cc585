// Package unifiedlog turns decoded tracev3 data into readable log entries.
//
// It owns the metadata a reconstruction needs (uuidtext string tables,
// shared cache strings and timesync boots), collects that metadata from a
// log archive or from the live system store, and resolves each firehose
// record's format string before rendering its arguments.
package unifiedlog
