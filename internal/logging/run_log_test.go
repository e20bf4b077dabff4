package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOpenRunLogCapturesDebug(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	base, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{filepath.Join(t.TempDir(), "main.log")}})
	if err != nil {
		t.Fatal(err)
	}

	logger, runLog, err := OpenRunLog(base, dir, "run-42")
	if err != nil {
		t.Fatalf("OpenRunLog failed: %v", err)
	}
	logger.Debug("segment transcribed", Int(FieldSegment, 1))
	logger.Info("file transcribed")
	if err := runLog.Close(); err != nil {
		t.Fatal(err)
	}
	if err := runLog.Close(); err != nil {
		t.Fatal("second close should be a no-op")
	}

	if runLog.Path() != filepath.Join(dir, "run-42.log") {
		t.Fatalf("unexpected run log path %s", runLog.Path())
	}
	data, err := os.ReadFile(runLog.Path())
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "segment transcribed") || !strings.Contains(out, "file transcribed") {
		t.Fatalf("run log missing records: %s", out)
	}
}

func TestOpenRunLogRejectsBadID(t *testing.T) {
	for _, id := range []string{"", "  ", "../escape"} {
		if _, _, err := OpenRunLog(NewNop(), t.TempDir(), id); err == nil {
			t.Fatalf("expected error for run id %q", id)
		}
	}
}

func TestPruneLogs(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().AddDate(0, 0, -10)
	write := func(name string, mod time.Time) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
		return path
	}
	stale := write("stale.log", old)
	current := write("current.log", old)
	fresh := write("fresh.log", time.Now())
	other := write("notes.txt", old)

	if n := PruneLogs(NewNop(), dir, RunLogPattern, 0); n != 0 {
		t.Fatalf("retention 0 should disable pruning, removed %d", n)
	}
	if n := PruneLogs(NewNop(), dir, RunLogPattern, 7, current); n != 1 {
		t.Fatalf("expected 1 removal, got %d", n)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale log should be removed")
	}
	for _, keep := range []string{current, fresh, other} {
		if _, err := os.Stat(keep); err != nil {
			t.Fatalf("%s should remain: %v", keep, err)
		}
	}
}
