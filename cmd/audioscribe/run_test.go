package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"audioscribe/internal/audio"
	"audioscribe/internal/config"
	"audioscribe/internal/history"
	"audioscribe/internal/runlock"
	"audioscribe/internal/testsupport"
)

func TestBareInvocationTranscribesInputFolder(t *testing.T) {
	env := setupCLITestEnv(t)
	in := env.cfg.Paths.InputDir
	testsupport.WriteTone(t, filepath.Join(in, "a.wav"), 2*audio.DefaultSampleRate, audio.DefaultSampleRate)
	testsupport.WriteTone(t, filepath.Join(in, "b.wav"), audio.DefaultSampleRate/2, audio.DefaultSampleRate)
	testsupport.WriteFile(t, filepath.Join(in, "notes.txt"), 10)

	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	requireContains(t, out, "2 transcribed, 0 failed, 0 canceled, 1 skipped")
	requireContains(t, out, "[2/2]")

	outDir := env.cfg.Paths.OutputDir
	if got := readFile(t, filepath.Join(outDir, "a.txt")); got != "hello hello" {
		t.Fatalf("a.txt = %q", got)
	}
	if got := readFile(t, filepath.Join(outDir, "b.txt")); got != "hello" {
		t.Fatalf("b.txt = %q", got)
	}
	requireMissing(t, filepath.Join(outDir, "notes.txt"))

	runLogs, err := filepath.Glob(filepath.Join(env.cfg.RunLogDir(), "*.log"))
	if err != nil || len(runLogs) != 1 {
		t.Fatalf("expected one run log, got %v (%v)", runLogs, err)
	}
	requireContains(t, readFile(t, runLogs[0]), "segment transcribed")

	out, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "2/2")
}

func TestRunReportsFailedFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	in := env.cfg.Paths.InputDir
	testsupport.WriteTone(t, filepath.Join(in, "a.wav"), audio.DefaultSampleRate, audio.DefaultSampleRate)
	// The stub ffmpeg prints nothing, so compressed inputs fail to decode.
	testsupport.WriteFile(t, filepath.Join(in, "bad.mp3"), 64)

	out, _, err := runCLI(t, []string{"run", "--no-progress"}, env.configPath)
	if err == nil {
		t.Fatal("expected non-nil error when a file fails")
	}
	requireContains(t, err.Error(), "1 of 2 files were not transcribed")
	requireContains(t, out, "1 transcribed, 1 failed")
	requireContains(t, out, "bad.mp3")
	if strings.Contains(out, "[1/2]") {
		t.Fatalf("--no-progress should suppress progress lines: %q", out)
	}

	outDir := env.cfg.Paths.OutputDir
	if got := readFile(t, filepath.Join(outDir, "a.txt")); got != "hello" {
		t.Fatalf("a.txt = %q", got)
	}
	requireMissing(t, filepath.Join(outDir, "bad.txt"))

	store := testsupport.MustOpenHistory(t, env.cfg)
	runs, err := store.ListRuns(context.Background(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns = %v, %v", runs, err)
	}
	if runs[0].Status != history.RunFailed {
		t.Fatalf("expected failed run, got %s", runs[0].Status)
	}

	out, _, err = runCLI(t, []string{"history", "show", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, runs[0].ID)
	requireContains(t, out, "bad.mp3")
	requireContains(t, out, "1 transcribed, 1 failed")
}

func TestRunFlagOverrides(t *testing.T) {
	env := setupCLITestEnv(t)
	in := filepath.Join(env.baseDir, "override-in")
	out := filepath.Join(env.baseDir, "override-out")
	testsupport.WriteTone(t, filepath.Join(in, "talk.wav"), 2*audio.DefaultSampleRate, audio.DefaultSampleRate)

	_, _, err := runCLI(t, []string{
		"run",
		"--input", in,
		"--output", out,
		"--segment-seconds", "2",
		"--workers", "1",
		"--no-history",
	}, env.configPath)
	if err != nil {
		t.Fatalf("run with overrides: %v", err)
	}
	if got := readFile(t, filepath.Join(out, "talk.txt")); got != "hello" {
		t.Fatalf("expected a single 2s segment, got %q", got)
	}
	requireMissing(t, env.cfg.HistoryPath())
}

func TestRunMissingInputFails(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "--input", filepath.Join(env.baseDir, "nope")}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing input folder")
	}
	requireContains(t, err.Error(), "Input directory")
}

func TestRunRefusesConcurrentBatch(t *testing.T) {
	env := setupCLITestEnv(t)
	lock, err := runlock.Acquire(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, []string{"run"}, env.configPath)
	if err == nil {
		t.Fatal("expected lock contention error")
	}
	requireContains(t, err.Error(), "already running")
}

func TestEffectiveConfigOverrides(t *testing.T) {
	base := config.Default()
	base.Paths.InputDir = t.TempDir()
	base.Paths.OutputDir = t.TempDir()

	cmd := newRunCommand(newCommandContext(nil, nil))
	if err := cmd.ParseFlags([]string{"--backend", "openai", "--timeout", "90s", "--workers", "3"}); err != nil {
		t.Fatal(err)
	}
	opts := runOptions{backend: "openai", timeout: 90 * time.Second, workers: 3}
	cfg, err := effectiveConfig(cmd, &base, opts)
	if err != nil {
		t.Fatalf("effectiveConfig: %v", err)
	}
	if cfg.Transcription.Backend != config.BackendOpenAI || cfg.Transcription.Model != "whisper-1" {
		t.Fatalf("backend override not applied: %+v", cfg.Transcription)
	}
	if cfg.Transcription.FileTimeoutSeconds != 90 || cfg.Transcription.Workers != 3 {
		t.Fatalf("numeric overrides not applied: %+v", cfg.Transcription)
	}
	if base.Transcription.Backend != config.BackendWhisperX {
		t.Fatal("base config must not be mutated")
	}

	bare := &cobra.Command{}
	cfg, err = effectiveConfig(bare, &base, runOptions{workers: 9})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transcription.Workers != 0 {
		t.Fatal("options without a changed flag must be ignored")
	}

	if err := cmd.ParseFlags([]string{"--segment-seconds", "0"}); err != nil {
		t.Fatal(err)
	}
	if _, err := effectiveConfig(cmd, &base, runOptions{}); err == nil {
		t.Fatal("expected error for zero segment length")
	}
}
