// Package batch discovers audio files in an input folder and transcribes them
// concurrently on a bounded worker pool, writing one UTF-8 transcript per
// source into the output folder.
//
// Per-file failures never escape their job: a file that cannot be decoded or
// transcribed is reported in the Summary and leaves no output behind, while
// the remaining files carry on. Only discovery failures abort a run.
package batch
