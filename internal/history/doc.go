// Package history persists batch runs and per-file outcomes in SQLite.
//
// The Store records one row per run and one row per discovered file, including
// a BLAKE3 fingerprint of the source so operators can tell whether a file
// changed between runs. It implements batch.Recorder and is written from the
// orchestrator's completion path, so every call retries briefly on
// SQLITE_BUSY.
//
// Schema changes bump schemaVersion in schema.go; users clear the database to
// adopt the new schema.
package history
