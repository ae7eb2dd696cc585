// Package tracev3 decodes Apple Unified Logging tracev3 files.
//
// A tracev3 file is a sequence of chunks, each introduced by a 16 byte
// preamble (tag, subtag, size) and padded to eight bytes. The header chunk
// carries the timebase and boot UUID, catalog chunks describe the processes
// that logged, and chunkset chunks hold LZ4 compressed firehose, oversize,
// statedump and simpledump chunks.
//
// Only non-activity firehose records are materialized. Callers can pass a
// format string anchor to Parse so that records pointing at any other format
// string are dropped while decoding, which keeps memory flat for large
// Persist files.
package tracev3
