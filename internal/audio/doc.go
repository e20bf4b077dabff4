// Package audio turns source files into mono float32 sample buffers and cuts
// those buffers into the fixed-length windows a speech model consumes.
//
// Decoding has two paths. WAV files already recorded at the target rate are
// read directly with go-audio/wav; everything else is piped through ffmpeg as
// raw little-endian float32 PCM. Segment and PadOrTrim are pure helpers with
// no I/O.
package audio
