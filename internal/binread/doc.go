// Package binread provides a bounds-checked little-endian cursor over byte
// slices.
//
// The uuidtext, dsc, timesync, and tracev3 decoders all read fixed-layout
// records from untrusted evidence files. Every read reports io.ErrUnexpectedEOF
// instead of panicking when a record is truncated, so callers can wrap the
// failure with their own context and keep going.
package binread
