// Package openai transcribes segments through an OpenAI-compatible
// /audio/transcriptions endpoint using go-openai.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"audioscribe/internal/audio"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
)

// DefaultModel is the hosted Whisper model name.
const DefaultModel = goopenai.Whisper1

// Config configures the client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Language   string
	Timeout    time.Duration
	SampleRate int
	// WorkDir holds the temporary WAV uploaded per segment.
	WorkDir string
}

// Client implements the segment model against the transcription API.
type Client struct {
	api    *goopenai.Client
	cfg    Config
	logger *slog.Logger
}

// New builds a client. An API key is required even for self-hosted
// endpoints; pass any placeholder when the server ignores it.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "openai", "init", "api key missing", nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:    goopenai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "openai"),
	}, nil
}

// Transcribe uploads one segment as 16-bit WAV and returns the text.
func (c *Client) Transcribe(ctx context.Context, samples []float32) (string, error) {
	path, err := audio.WriteTempWAV(c.cfg.WorkDir, "audioscribe-openai-*.wav", samples, c.cfg.SampleRate)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "openai", "write segment", "", err)
	}
	defer os.Remove(path)

	req := goopenai.AudioRequest{
		Model:    c.cfg.Model,
		FilePath: path,
		Language: c.cfg.Language,
		Format:   goopenai.AudioResponseFormatJSON,
	}
	started := time.Now()
	resp, err := c.api.CreateTranscription(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", classify(err)
	}
	c.logger.Debug("segment transcribed",
		logging.String("model", c.cfg.Model),
		logging.Duration("latency", time.Since(started)),
	)
	return resp.Text, nil
}

func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		detail := fmt.Sprintf("status %d", apiErr.HTTPStatusCode)
		switch {
		case apiErr.HTTPStatusCode == http.StatusUnauthorized, apiErr.HTTPStatusCode == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "openai", "transcribe", detail, err)
		case apiErr.HTTPStatusCode == http.StatusBadRequest, apiErr.HTTPStatusCode == http.StatusRequestEntityTooLarge:
			return services.Wrap(services.ErrValidation, "openai", "transcribe", detail, err)
		default:
			return services.Wrap(services.ErrTransient, "openai", "transcribe", detail, err)
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return services.Wrap(services.ErrTransient, "openai", "transcribe",
			fmt.Sprintf("status %d", reqErr.HTTPStatusCode), err)
	}
	return services.Wrap(services.ErrExternalTool, "openai", "transcribe", "request failed", err)
}
