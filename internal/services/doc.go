// Package services defines shared utilities consumed by the transcription
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and source file paths for
//     logging.
//   - Structured error markers plus the Wrap helper so backend failures can be
//     classified with errors.Is regardless of which layer reports them.
//
// Use these helpers when wiring new backends so operational behaviour stays
// uniform across the pipeline.
package services
