package history

import "time"

// RunStatus is the lifecycle state of a run row.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	// RunFailed means at least one file failed or was canceled.
	RunFailed RunStatus = "failed"
	// RunAborted means the batch could not start (discovery error).
	RunAborted RunStatus = "aborted"
)

// Run is one batch invocation.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Status        RunStatus
	InputDir      string
	OutputDir     string
	Backend       string
	Model         string
	Workers       int
	SegmentLength int
	Discovered    int
	Processed     int
	Failed        int
	Canceled      int
	Skipped       int
}

// Duration is the wall time of a finished run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FileRecord is the persisted outcome for one source file.
type FileRecord struct {
	ID         int64
	RunID      string
	SourcePath string
	OutputPath string
	Status     string
	Segments   int
	Samples    int
	Chars      int
	Duration   time.Duration
	SourceSize int64
	SourceHash string
	Error      string
	RecordedAt time.Time
}
