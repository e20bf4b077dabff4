package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"audioscribe/internal/services"
)

func writeWAVFile(t *testing.T, path string, samples []float32, rate int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()
	if err := WriteWAV(f, samples, rate); err != nil {
		t.Fatalf("write wav: %v", err)
	}
}

func f32le(samples ...float32) []byte {
	out := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

func failingRunner(t *testing.T) CommandRunner {
	return func(context.Context, string, ...string) ([]byte, error) {
		t.Helper()
		t.Fatal("ffmpeg should not be invoked")
		return nil, nil
	}
}

func TestDecoderReadsNativeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	samples := []float32{0, 0.5, -0.5, 0.25, -1, 1}
	writeWAVFile(t, path, samples, DefaultSampleRate)

	dec := NewDecoder("", DefaultSampleRate, nil)
	dec.WithCommandRunner(failingRunner(t))

	buf, err := dec.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(buf) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf), len(samples))
	}
	for i := range samples {
		if math.Abs(float64(buf[i]-samples[i])) > 1e-3 {
			t.Fatalf("sample %d = %v, want ~%v", i, buf[i], samples[i])
		}
	}
}

func TestDecoderFallsBackToFFmpegForOtherRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hifi.WAV")
	writeWAVFile(t, path, []float32{0.1, 0.2}, 44100)

	var gotName string
	var gotArgs []string
	dec := NewDecoder("/opt/ffmpeg", DefaultSampleRate, nil)
	dec.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return f32le(0.25, -0.25, 0.5), nil
	})

	buf, err := dec.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if gotName != "/opt/ffmpeg" {
		t.Fatalf("unexpected binary %q", gotName)
	}
	if !slices.Equal([]float32(buf), []float32{0.25, -0.25, 0.5}) {
		t.Fatalf("unexpected samples %v", buf)
	}
	if idx := slices.Index(gotArgs, "-i"); idx < 0 || gotArgs[idx+1] != path {
		t.Fatalf("expected -i %s in args %v", path, gotArgs)
	}
	if idx := slices.Index(gotArgs, "-ar"); idx < 0 || gotArgs[idx+1] != "16000" {
		t.Fatalf("expected -ar 16000 in args %v", gotArgs)
	}
	if idx := slices.Index(gotArgs, "-f"); idx < 0 || gotArgs[idx+1] != "f32le" {
		t.Fatalf("expected -f f32le in args %v", gotArgs)
	}
	if gotArgs[len(gotArgs)-1] != "-" {
		t.Fatalf("expected stdout output, got %v", gotArgs)
	}
}

func TestDecoderUsesFFmpegForCompressedFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.mp3")
	if err := os.WriteFile(path, []byte("not really mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	called := false
	dec := NewDecoder("", DefaultSampleRate, nil)
	dec.WithCommandRunner(func(_ context.Context, name string, _ ...string) ([]byte, error) {
		called = true
		if name != FFmpegCommand {
			t.Fatalf("unexpected binary %q", name)
		}
		return f32le(0.1), nil
	})
	if _, err := dec.Load(context.Background(), path); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !called {
		t.Fatal("expected ffmpeg to be invoked")
	}
}

func TestDecoderErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "broken.flac")
	if err := os.WriteFile(corrupt, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("missing file", func(t *testing.T) {
		dec := NewDecoder("", DefaultSampleRate, nil)
		dec.WithCommandRunner(failingRunner(t))
		_, err := dec.Load(context.Background(), filepath.Join(dir, "gone.mp3"))
		if !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ffmpeg failure", func(t *testing.T) {
		dec := NewDecoder("", DefaultSampleRate, nil)
		dec.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
			return nil, errors.New("invalid data found when processing input")
		})
		_, err := dec.Load(context.Background(), corrupt)
		if !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("expected ErrExternalTool, got %v", err)
		}
	})

	t.Run("truncated pcm", func(t *testing.T) {
		dec := NewDecoder("", DefaultSampleRate, nil)
		dec.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
			return []byte{1, 2, 3}, nil
		})
		_, err := dec.Load(context.Background(), corrupt)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("empty stream", func(t *testing.T) {
		dec := NewDecoder("", DefaultSampleRate, nil)
		dec.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
			return nil, nil
		})
		_, err := dec.Load(context.Background(), corrupt)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("empty wav", func(t *testing.T) {
		empty := filepath.Join(dir, "silence.wav")
		writeWAVFile(t, empty, nil, DefaultSampleRate)
		dec := NewDecoder("", DefaultSampleRate, nil)
		dec.WithCommandRunner(failingRunner(t))
		buf, err := dec.Load(context.Background(), empty)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v (%d samples)", err, len(buf))
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		dec := NewDecoder("", DefaultSampleRate, nil)
		dec.WithCommandRunner(failingRunner(t))
		if _, err := dec.Load(ctx, corrupt); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestDownmixAveragesChannels(t *testing.T) {
	buf := downmix([]int{16384, -16384, 32767, 32767}, 2, 16)
	if len(buf) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(buf))
	}
	if buf[0] != 0 {
		t.Fatalf("frame 0 = %v, want 0", buf[0])
	}
	if math.Abs(float64(buf[1])-1) > 1e-3 {
		t.Fatalf("frame 1 = %v, want ~1", buf[1])
	}
}

func TestWriteTempWAV(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteTempWAV(dir, "segment-*.wav", []float32{0, 0.5, 2}, DefaultSampleRate)
	if err != nil {
		t.Fatalf("WriteTempWAV returned error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("temp wav written outside %s: %s", dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	buf, ok, err := readNativeWAV(f, DefaultSampleRate)
	if err != nil || !ok {
		t.Fatalf("readNativeWAV ok=%v err=%v", ok, err)
	}
	if len(buf) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(buf))
	}
	if math.Abs(float64(buf[2])-1) > 1e-3 {
		t.Fatalf("expected clipped sample near 1, got %v", buf[2])
	}
}
