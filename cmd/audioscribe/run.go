package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"audioscribe/internal/audio"
	"audioscribe/internal/backends"
	"audioscribe/internal/batch"
	"audioscribe/internal/config"
	"audioscribe/internal/deps"
	"audioscribe/internal/history"
	"audioscribe/internal/logging"
	"audioscribe/internal/preflight"
	"audioscribe/internal/runlock"
	"audioscribe/internal/transcribe"
)

// loadModel builds the configured speech-to-text backend. Tests replace it
// with a stub.
var loadModel = backends.Load

type runOptions struct {
	inputDir       string
	outputDir      string
	backend        string
	model          string
	language       string
	workers        int
	segmentSeconds int
	timeout        time.Duration
	noHistory      bool
	noProgress     bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe every audio file in the input folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.inputDir, "input", "i", "", "Folder containing audio files")
	flags.StringVarP(&opts.outputDir, "output", "o", "", "Folder receiving transcripts")
	flags.StringVar(&opts.backend, "backend", "", "Transcription backend (whisperx, openai, whisper_server)")
	flags.StringVar(&opts.model, "model", "", "Backend model name")
	flags.StringVar(&opts.language, "language", "", "Language hint passed to the backend")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Files transcribed concurrently (0 = one per CPU)")
	flags.IntVar(&opts.segmentSeconds, "segment-seconds", 0, "Segment length in seconds")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Per-file transcription timeout (0 disables)")
	flags.BoolVar(&opts.noHistory, "no-history", false, "Do not record this run in the history database")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

// effectiveConfig returns a copy of base with the command's flag overrides
// applied and re-validated.
func effectiveConfig(cmd *cobra.Command, base *config.Config, opts runOptions) (*config.Config, error) {
	cfg := *base
	changed := func(name string) bool {
		return cmd.Flags().Lookup(name) != nil && cmd.Flags().Changed(name)
	}

	if changed("input") {
		cfg.Paths.InputDir = opts.inputDir
	}
	if changed("output") {
		cfg.Paths.OutputDir = opts.outputDir
	}
	if changed("backend") {
		cfg.Transcription.Backend = opts.backend
		if !changed("model") {
			cfg.Transcription.Model = ""
		}
	}
	if changed("model") {
		cfg.Transcription.Model = opts.model
	}
	if changed("language") {
		cfg.Transcription.Language = opts.language
	}
	if changed("workers") {
		cfg.Transcription.Workers = opts.workers
	}
	if changed("segment-seconds") {
		if opts.segmentSeconds <= 0 {
			return nil, fmt.Errorf("--segment-seconds must be positive, got %d", opts.segmentSeconds)
		}
		cfg.Transcription.SegmentSeconds = opts.segmentSeconds
	}
	if changed("timeout") {
		cfg.Transcription.FileTimeoutSeconds = int(opts.timeout.Round(time.Second) / time.Second)
	}
	if opts.noHistory {
		cfg.History.Enabled = false
	}

	if err := cfg.Reconcile(); err != nil {
		return nil, fmt.Errorf("invalid run options: %w", err)
	}
	return &cfg, nil
}

func runBatch(cmd *cobra.Command, cmdCtx *commandContext, opts runOptions) error {
	base, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	cfg, err := effectiveConfig(cmd, base, opts)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if missing := deps.Missing(deps.CheckBinaries(deps.Requirements(cfg))); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Detail))
		}
		return fmt.Errorf("missing required tools: %s; run `audioscribe deps` for details", strings.Join(names, ", "))
	}
	if failed := preflight.Failed(preflight.RunAll(ctx, cfg)); len(failed) > 0 {
		lines := make([]string, 0, len(failed))
		for _, r := range failed {
			lines = append(lines, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(lines, "; "))
	}

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			return fmt.Errorf("another batch is already running (lock %s)", cfg.LockPath())
		}
		return err
	}
	defer lock.Release()

	runID := uuid.NewString()
	runLogger, runLog, err := logging.OpenRunLog(logger, cfg.RunLogDir(), runID)
	if err != nil {
		return err
	}
	defer runLog.Close()
	logging.PruneLogs(logger, cfg.RunLogDir(), logging.RunLogPattern, cfg.Logging.RetentionDays, runLog.Path())
	logger = runLogger

	transcriber, err := buildTranscriber(cfg, logger)
	if err != nil {
		return err
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.HistoryPath(), history.WithSourceHashing(cfg.History.HashSources))
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		if err := store.BeginRun(ctx, history.Run{
			ID:            runID,
			StartedAt:     time.Now(),
			InputDir:      cfg.Paths.InputDir,
			OutputDir:     cfg.Paths.OutputDir,
			Backend:       cfg.Transcription.Backend,
			Model:         cfg.Transcription.Model,
			Workers:       cfg.EffectiveWorkers(),
			SegmentLength: cfg.SegmentLength(),
		}); err != nil {
			return fmt.Errorf("record run start: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	progress := newProgressReporter(out, !opts.noProgress)
	batchOpts := batch.Options{
		InputDir:      cfg.Paths.InputDir,
		OutputDir:     cfg.Paths.OutputDir,
		SegmentLength: cfg.SegmentLength(),
		Workers:       cfg.EffectiveWorkers(),
		FileTimeout:   time.Duration(cfg.Transcription.FileTimeoutSeconds) * time.Second,
		RunID:         runID,
		OnStart:       func(d batch.Discovery) { progress.Start(len(d.Jobs)) },
		OnFileDone:    progress.Done,
	}
	if store != nil {
		batchOpts.Recorder = store
	}

	orchestrator, err := batch.New(transcriber, batchOpts, logger)
	if err != nil {
		return err
	}
	summary, runErr := orchestrator.Run(ctx)
	progress.Finish()

	if store != nil {
		if err := store.FinishRun(context.WithoutCancel(ctx), summary, runErr); err != nil {
			logging.WarnWithContext(logger, "record run finish failed", "history_write_failed",
				logging.String("run_id", runID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "history for this run may be incomplete"),
			)
		}
	}
	if runErr != nil {
		return runErr
	}

	printSummary(out, summary)
	if !summary.OK() {
		return fmt.Errorf("%d of %d files were not transcribed", summary.Failed+summary.Canceled, summary.Discovered)
	}
	return nil
}

func buildTranscriber(cfg *config.Config, logger *slog.Logger) (*transcribe.FileTranscriber, error) {
	model, err := loadModel(cfg, logger)
	if err != nil {
		return nil, err
	}
	worker, err := transcribe.NewWorker(model, cfg.SegmentLength())
	if err != nil {
		return nil, err
	}
	decoder := audio.NewDecoder(cfg.FFmpegBinary(), cfg.Transcription.SampleRate, logger)
	return transcribe.NewFileTranscriber(decoder, worker, logger)
}

func printSummary(out io.Writer, summary batch.Summary) {
	fmt.Fprintf(out, "Run %s: %d transcribed, %d failed, %d canceled, %d skipped in %s\n",
		shortID(summary.RunID),
		summary.Processed,
		summary.Failed,
		summary.Canceled,
		summary.Skipped,
		summary.Duration().Round(time.Millisecond),
	)
	failures := summary.Failures()
	if len(failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(failures))
	for _, r := range failures {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		rows = append(rows, []string{filepath.Base(r.Job.Source), string(r.Status), msg})
	}
	fmt.Fprintln(out, renderTable([]string{"File", "Status", "Error"}, rows, nil))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
