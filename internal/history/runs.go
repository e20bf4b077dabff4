package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"audioscribe/internal/batch"
	"audioscribe/internal/fileutil"
)

// ErrRunNotFound is returned when no run matches the requested ID.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRunID is returned when an ID prefix matches several runs.
var ErrAmbiguousRunID = errors.New("run id prefix is ambiguous")

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, started_at, finished_at, status, input_dir, output_dir, backend, model, workers, segment_length, discovered, processed, failed, canceled, skipped"

const fileColumns = "id, run_id, source_path, output_path, status, segments, samples, chars, duration_ms, source_size, source_hash, error, recorded_at"

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("history: run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, started_at, status, input_dir, output_dir, backend, model, workers, segment_length)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		string(RunRunning),
		run.InputDir,
		run.OutputDir,
		run.Backend,
		run.Model,
		run.Workers,
		run.SegmentLength,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the summary counts and final status for a run. A non-nil
// runErr marks the run aborted.
func (s *Store) FinishRun(ctx context.Context, summary batch.Summary, runErr error) error {
	status := RunCompleted
	switch {
	case runErr != nil:
		status = RunAborted
	case !summary.OK():
		status = RunFailed
	}
	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, discovered = ?, processed = ?, failed = ?, canceled = ?, skipped = ?
		 WHERE id = ?`,
		finished.UTC().Format(timeLayout),
		string(status),
		summary.Discovered,
		summary.Processed,
		summary.Failed,
		summary.Canceled,
		summary.Skipped,
		summary.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, summary.RunID)
	}
	return nil
}

// RecordFile persists one file outcome. It satisfies batch.Recorder and is
// safe for concurrent use. Canceled files are not fingerprinted.
func (s *Store) RecordFile(ctx context.Context, runID string, result batch.FileResult) error {
	var (
		size int64
		hash string
	)
	if info, err := os.Stat(result.Job.Source); err == nil {
		size = info.Size()
	}
	if s.hashSources && result.Status != batch.StatusCanceled {
		if digest, n, err := fileutil.HashFile(result.Job.Source); err == nil {
			hash, size = digest, n
		}
	}
	var errText string
	if result.Err != nil {
		errText = result.Err.Error()
	}

	_, err := s.execWithRetry(ctx,
		`INSERT INTO run_files (run_id, source_path, output_path, status, segments, samples, chars, duration_ms, source_size, source_hash, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		result.Job.Source,
		result.Job.Output,
		string(result.Status),
		result.Segments,
		result.Samples,
		result.Chars,
		result.Elapsed.Milliseconds(),
		size,
		hash,
		errText,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run file: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose ID equals or starts with id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	if id == "" {
		return nil, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR substr(id, 1, ?) = ? ORDER BY started_at DESC LIMIT 2",
		id, len(id), id,
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		for _, m := range matches {
			if m.ID == id {
				return m, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}
}

// ListFiles returns the file outcomes of a run ordered by source path.
func (s *Store) ListFiles(ctx context.Context, runID string) ([]FileRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+fileColumns+" FROM run_files WHERE run_id = ? ORDER BY source_path, id", runID)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var (
			rec        FileRecord
			durationMS int64
			recorded   string
		)
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.SourcePath, &rec.OutputPath, &rec.Status,
			&rec.Segments, &rec.Samples, &rec.Chars, &durationMS,
			&rec.SourceSize, &rec.SourceHash, &rec.Error, &recorded,
		); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.RecordedAt = parseTime(recorded)
		files = append(files, rec)
	}
	return files, rows.Err()
}

// LastSuccessByHash returns the most recent successful record for a source
// fingerprint, or nil when none exists.
func (s *Store) LastSuccessByHash(ctx context.Context, hash string) (*FileRecord, error) {
	if hash == "" {
		return nil, nil
	}
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM run_files WHERE source_hash = ? AND status = ? ORDER BY recorded_at DESC LIMIT 1",
		hash, string(batch.StatusSucceeded))
	var (
		rec        FileRecord
		durationMS int64
		recorded   string
	)
	err := row.Scan(
		&rec.ID, &rec.RunID, &rec.SourcePath, &rec.OutputPath, &rec.Status,
		&rec.Segments, &rec.Samples, &rec.Chars, &durationMS,
		&rec.SourceSize, &rec.SourceHash, &rec.Error, &recorded,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup by hash: %w", err)
	}
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.RecordedAt = parseTime(recorded)
	return &rec, nil
}

// Clear deletes every run and file record and returns the number of runs removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if _, err := s.execWithRetry(ctx, "DELETE FROM run_files"); err != nil {
		return 0, fmt.Errorf("clear run files: %w", err)
	}
	res, err := s.execWithRetry(ctx, "DELETE FROM runs")
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run       Run
		started   string
		finished  sql.NullString
		statusStr string
	)
	if err := scanner.Scan(
		&run.ID, &started, &finished, &statusStr,
		&run.InputDir, &run.OutputDir, &run.Backend, &run.Model,
		&run.Workers, &run.SegmentLength,
		&run.Discovered, &run.Processed, &run.Failed, &run.Canceled, &run.Skipped,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Status = RunStatus(statusStr)
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	return &run, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
