package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"audioscribe/internal/services"
)

func argValue(args []string, flag string) string {
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		return ""
	}
	return args[idx+1]
}

func TestBuildArgsCPU(t *testing.T) {
	svc := NewService(Config{Model: "base", Language: "English"}, nil)
	args := svc.buildArgs("/tmp/seg.wav", "/tmp/out")

	if args[0] != "--index-url" || args[1] != PypiIndexURL {
		t.Fatalf("unexpected index args %v", args[:2])
	}
	if slices.Contains(args, "--extra-index-url") {
		t.Fatal("cpu run should not add the CUDA index")
	}
	if argValue(args, "whisperx") != "/tmp/seg.wav" {
		t.Fatalf("expected source after whisperx, got %v", args)
	}
	checks := map[string]string{
		"--model":         "base",
		"--output_dir":    "/tmp/out",
		"--output_format": OutputFormat,
		"--vad_method":    VADMethodSilero,
		"--language":      "en",
		"--device":        CPUDevice,
		"--compute_type":  CPUComputeType,
	}
	for flag, want := range checks {
		if got := argValue(args, flag); got != want {
			t.Errorf("%s = %q, want %q", flag, got, want)
		}
	}
	if slices.Contains(args, "--hf_token") {
		t.Fatal("silero VAD should not pass a token")
	}
	for _, flag := range []string{"--chunk_size", "--vad_onset", "--vad_offset"} {
		if slices.Contains(args, flag) {
			t.Errorf("%s should be left at the whisperx default", flag)
		}
	}
}

func TestBuildArgsCUDAWithPyannote(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_abc"}, nil)
	args := svc.buildArgs("in.wav", "out")

	if argValue(args, "--index-url") != CUDAIndexURL || argValue(args, "--extra-index-url") != PypiIndexURL {
		t.Fatalf("unexpected index args %v", args)
	}
	if argValue(args, "--model") != DefaultModel {
		t.Fatalf("expected default model, got %q", argValue(args, "--model"))
	}
	if argValue(args, "--hf_token") != "hf_abc" {
		t.Fatal("expected hf token for pyannote")
	}
	if argValue(args, "--device") != CUDADevice || slices.Contains(args, "--compute_type") {
		t.Fatalf("unexpected device args %v", args)
	}
	if slices.Contains(args, "--language") {
		t.Fatal("empty language must not be passed")
	}
}

func TestTranscribeWritesSegmentAndReadsJSON(t *testing.T) {
	workDir := t.TempDir()
	svc := NewService(Config{Model: "base", WorkDir: workDir, UVXBinary: "/opt/uvx"}, nil)

	var sourceSeen string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != "/opt/uvx" {
			t.Fatalf("unexpected binary %q", name)
		}
		source := argValue(args, "whisperx")
		sourceSeen = source
		info, err := os.Stat(source)
		if err != nil {
			t.Fatalf("segment wav missing: %v", err)
		}
		if info.Size() <= 44 {
			t.Fatalf("segment wav has no samples (%d bytes)", info.Size())
		}
		outDir := argValue(args, "--output_dir")
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		payload := `{"segments":[{"text":" Hello there.","start":0,"end":1},{"text":"  ","start":1,"end":2},{"text":"General Kenobi.","start":2,"end":3}]}`
		return os.WriteFile(filepath.Join(outDir, base+".json"), []byte(payload), 0o644)
	})

	text, err := svc.Transcribe(context.Background(), make([]float32, 1600))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if text != "Hello there. General Kenobi." {
		t.Fatalf("text = %q", text)
	}
	if _, err := os.Stat(sourceSeen); !os.IsNotExist(err) {
		t.Fatal("expected scratch files to be removed")
	}
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty work dir, found %d entries", len(entries))
	}
}

func TestTranscribeFailures(t *testing.T) {
	t.Run("command fails", func(t *testing.T) {
		svc := NewService(Config{WorkDir: t.TempDir()}, nil)
		svc.WithCommandRunner(func(context.Context, string, ...string) error {
			return errors.New("exit status 1")
		})
		_, err := svc.Transcribe(context.Background(), make([]float32, 10))
		if !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("expected ErrExternalTool, got %v", err)
		}
	})

	t.Run("missing output", func(t *testing.T) {
		svc := NewService(Config{WorkDir: t.TempDir()}, nil)
		svc.WithCommandRunner(func(context.Context, string, ...string) error { return nil })
		_, err := svc.Transcribe(context.Background(), make([]float32, 10))
		if !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("expected ErrExternalTool, got %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		svc := NewService(Config{WorkDir: t.TempDir()}, nil)
		svc.WithCommandRunner(func(context.Context, string, ...string) error {
			cancel()
			return errors.New("signal: killed")
		})
		_, err := svc.Transcribe(ctx, make([]float32, 10))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
