// Package transcribe turns decoded audio into text.
//
// A Worker runs one fixed-length segment through a Model. A FileTranscriber
// loads a file, segments it, feeds the segments to its Worker strictly in
// order, and joins the per-segment texts with single spaces. Any segment
// failure aborts the whole file so no partial transcript escapes.
package transcribe
