// Package uuidtext parses the per-binary string tables that the unified
// logging system stores under /private/var/db/uuidtext (or at the root of a
// .logarchive).
//
// Each file is named after the UUID of the image it describes, split into a
// two character directory and a thirty character file name. The file holds a
// list of descriptors mapping virtual format string offsets onto a shared
// footer buffer, followed by the image's library path.
package uuidtext
