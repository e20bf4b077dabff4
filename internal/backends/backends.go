// Package backends selects and constructs the speech model named in config.
package backends

import (
	"fmt"
	"log/slog"
	"time"

	"audioscribe/internal/config"
	"audioscribe/internal/language"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
	"audioscribe/internal/services/openai"
	"audioscribe/internal/services/whisperserver"
	"audioscribe/internal/services/whisperx"
	"audioscribe/internal/transcribe"
)

// Load returns the model for cfg.Transcription.Backend, wrapped with
// transcribe.Serialized when serialize_inference is set.
func Load(cfg *config.Config, logger *slog.Logger) (transcribe.Model, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "backends", "load", "config is nil", nil)
	}
	model, err := build(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Transcription.SerializeInference {
		model = transcribe.Serialized(model)
	}
	logging.NewComponentLogger(logger, "backends").Info("speech model ready",
		logging.String("backend", cfg.Transcription.Backend),
		logging.String("model", cfg.Transcription.Model),
		logging.Bool("serialized", cfg.Transcription.SerializeInference),
	)
	return model, nil
}

func build(cfg *config.Config, logger *slog.Logger) (transcribe.Model, error) {
	lang := language.ToISO2(cfg.Transcription.Language)
	switch cfg.Transcription.Backend {
	case config.BackendWhisperX:
		return whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.Model,
			Language:    lang,
			CUDAEnabled: cfg.WhisperX.CUDAEnabled,
			VADMethod:   cfg.WhisperX.VADMethod,
			HFToken:     cfg.WhisperX.HFToken,
			WorkDir:     cfg.WhisperX.WorkDir,
			SampleRate:  cfg.Transcription.SampleRate,
			UVXBinary:   cfg.UVXBinary(),
		}, logger), nil
	case config.BackendOpenAI:
		return openai.New(openai.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.Transcription.Model,
			Language:   lang,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
			SampleRate: cfg.Transcription.SampleRate,
		}, logger)
	case config.BackendWhisperServer:
		return whisperserver.New(whisperserver.Config{
			URL:        cfg.WhisperServer.URL,
			Language:   lang,
			Timeout:    time.Duration(cfg.WhisperServer.TimeoutSeconds) * time.Second,
			SampleRate: cfg.Transcription.SampleRate,
		}, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "backends", "load",
			fmt.Sprintf("unsupported backend %q", cfg.Transcription.Backend), nil)
	}
}
