// Package main hosts the audioscribe CLI entrypoint and command graph.
//
// Running the binary without a subcommand transcribes every audio file in the
// configured input folder (audio/ by default) into one text file per source
// under the output folder (transcribed_text/ by default). Subcommands expose
// the same batch with flag overrides, configuration scaffolding, external tool
// checks, and the run history kept in SQLite.
//
// Keep this package thin: batch behavior lives in internal/batch and the
// transcription pipeline in internal/transcribe; commands here only resolve
// configuration, wire collaborators, and render results.
package main
