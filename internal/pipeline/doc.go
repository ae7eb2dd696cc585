// Package pipeline runs one battery health extraction: it collects metadata,
// locates the anchor format string, then walks the Live, Special, and
// Persist trace files until a MaxCapacity value is found.
//
// The search is strictly ordered and short-circuits on the first value. A
// category is only listed once every earlier category is exhausted. Oversize
// records carry over between files of one category and reset at each
// category boundary.
//
// Collaborators (metadata source, trace decoder, reconstructor) are
// interfaces so tests can substitute fakes; the defaults are the tracev3
// and unifiedlog packages.
package pipeline
