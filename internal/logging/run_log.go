package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RunLogPattern matches the files written by OpenRunLog.
const RunLogPattern = "*.log"

// RunLog is the per-run JSON log file. It always records debug and above so a
// failed file can be diagnosed without rerunning at a higher level.
type RunLog struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// OpenRunLog creates <dir>/<runID>.log and returns a logger that writes to
// both base and the new file.
func OpenRunLog(base *slog.Logger, dir, runID string) (*slog.Logger, *RunLog, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" || strings.ContainsAny(runID, `/\`) {
		return nil, nil, fmt.Errorf("run log: invalid run id %q", runID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure run log dir: %w", err)
	}
	path := filepath.Join(dir, runID+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log %s: %w", path, err)
	}

	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	logger := TeeLogger(base, newJSONHandler(file, lvl, false))
	return logger, &RunLog{path: path, file: file}, nil
}

// Path returns the run log location.
func (r *RunLog) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Close flushes and closes the file. It is safe to call more than once.
func (r *RunLog) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
