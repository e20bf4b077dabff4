// Package whisperx runs WhisperX through uvx as a segment-level speech model.
//
// Each call writes the segment to a temporary 16-bit WAV, invokes
// `uvx whisperx` with a fixed set of decoding options, and reads the text back
// from the JSON output. Configuration options (model, CUDA, VAD method) are
// passed via Config.
package whisperx
