// Package services defines shared utilities consumed by the reconstruction
// pipeline and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, pipeline stages, and trace
//     categories for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     as fatal to the run or recoverable per file.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform across the run.
package services
