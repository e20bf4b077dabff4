package batch

import (
	"sort"
	"time"
)

// Status is the terminal state of one job.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// FileResult is the outcome of one job.
type FileResult struct {
	Job      Job
	Status   Status
	Segments int
	Samples  int
	Chars    int
	Elapsed  time.Duration
	Err      error
}

// Summary aggregates a run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Processed  int
	Failed     int
	Canceled   int
	Skipped    int
	Results    []FileResult
	// SkippedEntries holds the names of input entries that were not audio files.
	SkippedEntries []string
}

// OK reports whether every discovered file was transcribed.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.Canceled == 0
}

// Duration is the wall time of the run.
func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Failures returns the failed and canceled results.
func (s Summary) Failures() []FileResult {
	var out []FileResult
	for _, r := range s.Results {
		if r.Status != StatusSucceeded {
			out = append(out, r)
		}
	}
	return out
}

func summarize(runID string, started time.Time, discovery Discovery, results []FileResult) Summary {
	summary := Summary{
		RunID:          runID,
		StartedAt:      started,
		FinishedAt:     time.Now(),
		Discovered:     len(discovery.Jobs),
		Skipped:        len(discovery.Skipped),
		SkippedEntries: discovery.Skipped,
		Results:        results,
	}
	for _, r := range results {
		switch r.Status {
		case StatusSucceeded:
			summary.Processed++
		case StatusCanceled:
			summary.Canceled++
		default:
			summary.Failed++
		}
	}
	sort.SliceStable(summary.Results, func(i, j int) bool {
		return summary.Results[i].Job.Source < summary.Results[j].Job.Source
	})
	return summary
}
