package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"audioscribe/internal/fileutil"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
	"audioscribe/internal/transcribe"
)

// Transcriber produces the transcript for one source file.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (transcribe.Result, error)
}

// Recorder persists per-file outcomes. Errors are logged and never fail a run.
// RecordFile is called concurrently from the worker goroutines.
type Recorder interface {
	RecordFile(ctx context.Context, runID string, result FileResult) error
}

// Options configures one batch run.
type Options struct {
	InputDir      string
	OutputDir     string
	SegmentLength int
	// Workers bounds concurrent files. Zero means runtime.NumCPU().
	Workers int
	// FileTimeout bounds a single file. Zero disables the limit.
	FileTimeout time.Duration
	// RunID labels logs and history rows. Generated when empty.
	RunID    string
	Recorder Recorder
	// OnStart receives the discovery result before any job is scheduled.
	OnStart func(Discovery)
	// OnFileDone is called once per job, from the goroutine that finished it.
	// Calls are serialized.
	OnFileDone func(FileResult)
}

// Orchestrator schedules one transcription per discovered file on a bounded pool.
type Orchestrator struct {
	transcriber Transcriber
	opts        Options
	logger      *slog.Logger

	mu sync.Mutex
}

// New validates opts and returns an orchestrator.
func New(transcriber Transcriber, opts Options, logger *slog.Logger) (*Orchestrator, error) {
	if transcriber == nil {
		return nil, errors.New("batch: transcriber is required")
	}
	if strings.TrimSpace(opts.InputDir) == "" {
		return nil, errors.New("batch: input dir is required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, errors.New("batch: output dir is required")
	}
	if opts.SegmentLength <= 0 {
		return nil, fmt.Errorf("batch: invalid segment length %d", opts.SegmentLength)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("batch: invalid worker count %d", opts.Workers)
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Orchestrator{
		transcriber: transcriber,
		opts:        opts,
		logger:      logging.NewComponentLogger(logger, "batch"),
	}, nil
}

// RunID returns the identifier this orchestrator stamps on its run.
func (o *Orchestrator) RunID() string {
	return o.opts.RunID
}

// Run discovers files and transcribes them. The returned error is non-nil
// only when the run could not start; per-file failures are in the Summary.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	ctx = services.WithRunID(ctx, o.opts.RunID)
	logger := logging.WithContext(ctx, o.logger)

	discovery, err := Discover(o.opts.InputDir, o.opts.OutputDir, o.opts.SegmentLength)
	if err != nil {
		logging.ErrorWithContext(logger, "input discovery failed", "discovery_failed",
			logging.String("input_dir", o.opts.InputDir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the input folder exists and is readable"),
		)
		return Summary{RunID: o.opts.RunID, StartedAt: started, FinishedAt: time.Now()}, err
	}
	for _, name := range discovery.Skipped {
		logger.Debug("skipping non-audio entry", logging.String("entry", name))
	}

	if err := os.MkdirAll(o.opts.OutputDir, 0o755); err != nil {
		return Summary{RunID: o.opts.RunID, StartedAt: started, FinishedAt: time.Now()},
			services.Wrap(services.ErrConfiguration, "batch", "ensure output dir", o.opts.OutputDir, err)
	}

	workers := min(o.opts.Workers, max(len(discovery.Jobs), 1))
	logger.Info("batch started",
		logging.String("input_dir", o.opts.InputDir),
		logging.String("output_dir", o.opts.OutputDir),
		logging.Int("files", len(discovery.Jobs)),
		logging.Int("skipped", len(discovery.Skipped)),
		logging.Int("workers", workers),
	)
	if o.opts.OnStart != nil {
		o.opts.OnStart(discovery)
	}

	results := make([]FileResult, len(discovery.Jobs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = o.process(ctx, discovery.Jobs[idx])
				o.finish(ctx, results[idx])
			}
		}()
	}

dispatch:
	for idx, job := range discovery.Jobs {
		if job.Err != nil {
			results[idx] = o.reject(ctx, job)
			o.finish(ctx, results[idx])
			continue
		}
		select {
		case <-ctx.Done():
			for rest := idx; rest < len(discovery.Jobs); rest++ {
				results[rest] = o.cancelled(discovery.Jobs[rest], ctx.Err())
				o.finish(ctx, results[rest])
			}
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	summary := summarize(o.opts.RunID, started, discovery, results)
	logger.Info("batch finished",
		logging.Int("processed", summary.Processed),
		logging.Int("failed", summary.Failed),
		logging.Int("canceled", summary.Canceled),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("elapsed", summary.Duration()),
	)
	return summary, nil
}

func (o *Orchestrator) process(ctx context.Context, job Job) FileResult {
	if err := ctx.Err(); err != nil {
		return o.cancelled(job, err)
	}

	fileCtx := services.WithFile(ctx, job.Source)
	cancel := func() {}
	if o.opts.FileTimeout > 0 {
		fileCtx, cancel = context.WithTimeout(fileCtx, o.opts.FileTimeout)
	}
	defer cancel()

	logger := logging.WithContext(fileCtx, o.logger)
	started := time.Now()
	result := FileResult{Job: job}

	transcript, err := o.transcriber.TranscribeFile(fileCtx, job.Source)
	result.Elapsed = time.Since(started)
	if err == nil {
		text := strings.ToValidUTF8(transcript.Text(), "\uFFFD")
		if werr := fileutil.WriteFileAtomic(job.Output, []byte(text), 0o644); werr != nil {
			err = services.Wrap(services.ErrTransient, "batch", "write transcript", job.Output, werr)
		} else {
			result.Status = StatusSucceeded
			result.Segments = transcript.Segments
			result.Samples = transcript.Samples
			result.Chars = len(text)
			logger.Info("transcript written",
				logging.String("output", job.Output),
				logging.Int("segments", result.Segments),
				logging.Duration("elapsed", result.Elapsed),
			)
			return result
		}
	}

	switch {
	case ctx.Err() != nil:
		result.Status = StatusCanceled
		result.Err = err
		logging.WarnWithContext(logger, "transcription canceled", "file_canceled",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rerun the batch to transcribe remaining files"),
			logging.String(logging.FieldImpact, "no transcript written for this file"),
		)
		return result
	case errors.Is(err, context.DeadlineExceeded) && o.opts.FileTimeout > 0:
		err = services.Wrap(services.ErrTimeout, "batch", "transcribe",
			fmt.Sprintf("exceeded file timeout %s", o.opts.FileTimeout), err)
	}

	result.Status = StatusFailed
	result.Err = err
	logging.ErrorWithContext(logger, "file failed", "file_failed",
		logging.String("reason", failureKind(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
	)
	return result
}

func (o *Orchestrator) reject(ctx context.Context, job Job) FileResult {
	logger := logging.WithContext(services.WithFile(ctx, job.Source), o.logger)
	logging.ErrorWithContext(logger, "file not transcribed", "output_collision",
		logging.Error(job.Err),
		logging.String(logging.FieldErrorHint, "rename one of the sources so their transcripts differ"),
	)
	return FileResult{Job: job, Status: StatusFailed, Err: job.Err}
}

func (o *Orchestrator) cancelled(job Job, err error) FileResult {
	return FileResult{Job: job, Status: StatusCanceled, Err: err}
}

// finish reports a result to the recorder, then to the observer. Recorder
// calls run on the finishing goroutine; only OnFileDone is serialized.
func (o *Orchestrator) finish(ctx context.Context, result FileResult) {
	if o.opts.Recorder != nil {
		// History rows land even after cancellation.
		recordCtx := context.WithoutCancel(ctx)
		if err := o.opts.Recorder.RecordFile(recordCtx, o.opts.RunID, result); err != nil {
			logging.WarnWithContext(o.logger, "failed to record file result", "history_write_failed",
				logging.String(logging.FieldFile, result.Job.Source),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the history database in the state directory"),
				logging.String(logging.FieldImpact, "run history will be incomplete"),
			)
		}
	}
	if o.opts.OnFileDone != nil {
		o.mu.Lock()
		o.opts.OnFileDone(result)
		o.mu.Unlock()
	}
}

func failureKind(err error) string {
	var loadErr *transcribe.AudioLoadError
	var transErr *transcribe.TranscriptionError
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "timeout"
	case errors.As(err, &loadErr):
		return "decode"
	case errors.As(err, &transErr):
		return "transcription"
	case errors.Is(err, ErrOutputCollision):
		return "collision"
	default:
		return "write"
	}
}
