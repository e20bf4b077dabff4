package backends

import (
	"errors"
	"testing"

	"audioscribe/internal/config"
	"audioscribe/internal/services"
	"audioscribe/internal/services/openai"
	"audioscribe/internal/services/whisperserver"
	"audioscribe/internal/services/whisperx"
	"audioscribe/internal/transcribe"
)

func TestLoadSelectsBackend(t *testing.T) {
	tests := []struct {
		backend string
		check   func(transcribe.Model) bool
	}{
		{config.BackendWhisperX, func(m transcribe.Model) bool { _, ok := m.(*whisperx.Service); return ok }},
		{config.BackendOpenAI, func(m transcribe.Model) bool { _, ok := m.(*openai.Client); return ok }},
		{config.BackendWhisperServer, func(m transcribe.Model) bool { _, ok := m.(*whisperserver.Client); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Transcription.Backend = tt.backend
			cfg.OpenAI.APIKey = "sk-test"
			model, err := Load(&cfg, nil)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if !tt.check(model) {
				t.Fatalf("unexpected model type %T", model)
			}
		})
	}
}

func TestLoadWrapsSerialized(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Backend = config.BackendWhisperX
	cfg.Transcription.SerializeInference = true
	model, err := Load(&cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := model.(*whisperx.Service); ok {
		t.Fatal("expected serialized wrapper")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for nil config, got %v", err)
	}

	cfg := config.Default()
	cfg.Transcription.Backend = "vosk"
	if _, err := Load(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unknown backend, got %v", err)
	}

	cfg = config.Default()
	cfg.Transcription.Backend = config.BackendOpenAI
	cfg.OpenAI.APIKey = ""
	if _, err := Load(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration without api key, got %v", err)
	}
}
