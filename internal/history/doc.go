// Package history persists extraction runs in a SQLite database.
//
// Each recorded run keeps the extracted value, the trace file it came from,
// that file's BLAKE3 digest, and the search statistics. Writes take an
// advisory file lock so concurrent invocations never interleave schema
// creation or inserts.
package history
