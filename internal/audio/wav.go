package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM = 1
	wavBitDepth  = 16
)

// WriteWAV encodes samples as 16-bit mono PCM. Values outside [-1, 1] are clipped.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("write wav: invalid sample rate %d", sampleRate)
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = floatToPCM16(s)
	}
	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, 1, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// WriteTempWAV writes samples to a new WAV file in dir and returns its path.
// The caller removes the file.
func WriteTempWAV(dir, pattern string, samples []float32, sampleRate int) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	path := f.Name()
	if err := WriteWAV(f, samples, sampleRate); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp wav: %w", err)
	}
	return path, nil
}

// readNativeWAV decodes a PCM WAV recorded at sampleRate. ok is false when the
// file is not a WAV the native path can handle, in which case the caller falls
// back to ffmpeg.
func readNativeWAV(r io.ReadSeeker, sampleRate int) (Buffer, bool, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, false, nil
	}
	if int(dec.SampleRate) != sampleRate || dec.WavAudioFormat != wavFormatPCM {
		return nil, false, nil
	}
	switch dec.BitDepth {
	case 16, 24, 32:
	default:
		return nil, false, nil
	}
	if dec.NumChans == 0 {
		return nil, false, nil
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, true, fmt.Errorf("decode wav: %w", err)
	}
	return downmix(pcm.Data, int(dec.NumChans), int(dec.BitDepth)), true, nil
}

// downmix averages interleaved channels and scales integer PCM to [-1, 1].
func downmix(data []int, channels, bitDepth int) Buffer {
	scale := float64(int64(1) << (bitDepth - 1))
	frames := len(data) / channels
	out := make(Buffer, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += float64(data[i*channels+c])
		}
		out[i] = float32(sum / float64(channels) / scale)
	}
	return out
}

func floatToPCM16(s float32) int {
	v := float64(s)
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	return int(math.Round(v * math.MaxInt16))
}
