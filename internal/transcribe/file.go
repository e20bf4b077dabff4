package transcribe

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"audioscribe/internal/audio"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
)

// Result is the ordered per-segment output for one file.
type Result struct {
	Path     string
	Texts    []string
	Samples  int
	Segments int
}

// Text joins the segment texts with single spaces, preserving order.
func (r Result) Text() string {
	return strings.Join(r.Texts, " ")
}

// FileTranscriber drives decoding, segmentation and per-segment inference for
// one file at a time. It holds no per-file state and may be shared.
type FileTranscriber struct {
	loader audio.Loader
	worker *Worker
	logger *slog.Logger
}

// NewFileTranscriber wires a loader and worker together.
func NewFileTranscriber(loader audio.Loader, worker *Worker, logger *slog.Logger) (*FileTranscriber, error) {
	if loader == nil {
		return nil, errors.New("transcribe: loader is required")
	}
	if worker == nil {
		return nil, errors.New("transcribe: worker is required")
	}
	return &FileTranscriber{
		loader: loader,
		worker: worker,
		logger: logging.NewComponentLogger(logger, "transcriber"),
	}, nil
}

// TranscribeFile returns the full transcript for path. Errors are either
// *AudioLoadError or *TranscriptionError, and no partial result is returned.
func (t *FileTranscriber) TranscribeFile(ctx context.Context, path string) (Result, error) {
	ctx = services.WithFile(ctx, path)
	logger := logging.WithContext(ctx, t.logger)
	started := time.Now()

	buf, err := t.loader.Load(ctx, path)
	if err != nil {
		return Result{}, &AudioLoadError{Path: path, Err: err}
	}

	segments, err := audio.Segment(buf, t.worker.SegmentLength())
	if err != nil {
		return Result{}, &TranscriptionError{Path: path, Segment: 0, Err: err}
	}

	texts := make([]string, 0, len(segments))
	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			return Result{}, &TranscriptionError{Path: path, Segment: i, Err: err}
		}
		segmentStart := time.Now()
		text, err := t.worker.Transcribe(ctx, i, segment)
		if err != nil {
			var terr *TranscriptionError
			if errors.As(err, &terr) {
				terr.Path = path
				return Result{}, terr
			}
			return Result{}, &TranscriptionError{Path: path, Segment: i, Err: err}
		}
		logger.Debug("segment transcribed",
			logging.Int(logging.FieldSegment, i),
			logging.Int("chars", len(text)),
			logging.Duration("elapsed", time.Since(segmentStart)),
		)
		texts = append(texts, text)
	}

	result := Result{
		Path:     path,
		Texts:    texts,
		Samples:  len(buf),
		Segments: len(segments),
	}
	logger.Info("file transcribed",
		logging.Int("segments", result.Segments),
		logging.Int("samples", result.Samples),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}
