package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Worker runs single segments through a Model.
type Worker struct {
	model         Model
	segmentLength int
}

// NewWorker returns a worker that accepts segments of exactly segmentLength samples.
func NewWorker(model Model, segmentLength int) (*Worker, error) {
	if model == nil {
		return nil, errors.New("transcribe: model is required")
	}
	if segmentLength <= 0 {
		return nil, fmt.Errorf("transcribe: invalid segment length %d", segmentLength)
	}
	return &Worker{model: model, segmentLength: segmentLength}, nil
}

// SegmentLength reports the window size the worker enforces.
func (w *Worker) SegmentLength() int {
	return w.segmentLength
}

// Transcribe returns the trimmed text for one segment. index is only used to
// label errors.
func (w *Worker) Transcribe(ctx context.Context, index int, segment []float32) (string, error) {
	if len(segment) != w.segmentLength {
		return "", &TranscriptionError{
			Segment: index,
			Err:     fmt.Errorf("%w: got %d samples, want %d", ErrSegmentLength, len(segment), w.segmentLength),
		}
	}
	text, err := w.model.Transcribe(ctx, segment)
	if err != nil {
		return "", &TranscriptionError{Segment: index, Err: err}
	}
	return strings.TrimSpace(text), nil
}
