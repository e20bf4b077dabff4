package audio

import (
	"errors"
	"fmt"
)

// DefaultSampleRate is the decode rate Whisper-family models expect.
const DefaultSampleRate = 16000

// DefaultSegmentSeconds is the window length Whisper-family models expect.
const DefaultSegmentSeconds = 30

// ErrInvalidSegmentLength is returned when a non-positive window length is requested.
var ErrInvalidSegmentLength = errors.New("segment length must be positive")

// Buffer holds decoded mono samples in the nominal range [-1, 1].
type Buffer []float32

// Segment splits buf into consecutive non-overlapping windows of exactly
// length samples. The last window is right-padded with zeros. Every window is
// a fresh slice, so callers may modify segments without touching buf.
func Segment(buf Buffer, length int) ([][]float32, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSegmentLength, length)
	}
	count := SegmentCount(len(buf), length)
	segments := make([][]float32, 0, count)
	for offset := 0; offset < len(buf); offset += length {
		end := min(offset+length, len(buf))
		window := make([]float32, length)
		copy(window, buf[offset:end])
		segments = append(segments, window)
	}
	return segments, nil
}

// SegmentCount returns ceil(samples/length) for positive length.
func SegmentCount(samples, length int) int {
	if length <= 0 || samples <= 0 {
		return 0
	}
	return (samples + length - 1) / length
}

// PadOrTrim returns a copy of samples that is exactly length long, truncating
// extra samples or appending zeros.
func PadOrTrim(samples []float32, length int) []float32 {
	if length <= 0 {
		return nil
	}
	out := make([]float32, length)
	copy(out, samples)
	return out
}

// SegmentLength converts a window duration into a sample count.
func SegmentLength(seconds, sampleRate int) int {
	return seconds * sampleRate
}
