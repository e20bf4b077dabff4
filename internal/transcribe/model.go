package transcribe

import (
	"context"
	"sync"
)

// Model converts one fixed-length window of 16 kHz mono samples to text.
// Implementations must be safe for concurrent use unless wrapped with
// Serialized.
type Model interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, samples []float32) (string, error)

func (f ModelFunc) Transcribe(ctx context.Context, samples []float32) (string, error) {
	return f(ctx, samples)
}

type serializedModel struct {
	mu    sync.Mutex
	model Model
}

// Serialized wraps model so only one inference runs at a time.
func Serialized(model Model) Model {
	if model == nil {
		return nil
	}
	if _, ok := model.(*serializedModel); ok {
		return model
	}
	return &serializedModel{model: model}
}

func (s *serializedModel) Transcribe(ctx context.Context, samples []float32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.model.Transcribe(ctx, samples)
}
