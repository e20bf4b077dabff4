// Package whisperserver transcribes segments through a whisper.cpp server's
// POST /inference endpoint.
package whisperserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"audioscribe/internal/audio"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
)

// Config configures the client.
type Config struct {
	URL        string
	Language   string
	Timeout    time.Duration
	SampleRate int
	WorkDir    string
}

// Client implements the segment model against whisper.cpp's server.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

type inferenceResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// New builds a client for the server at cfg.URL.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if cfg.URL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "whisper_server", "init", "url missing", nil)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewComponentLogger(logger, "whisper_server"),
	}, nil
}

// Transcribe posts one segment as a WAV upload and returns the text.
func (c *Client) Transcribe(ctx context.Context, samples []float32) (string, error) {
	path, err := audio.WriteTempWAV(c.cfg.WorkDir, "audioscribe-server-*.wav", samples, c.cfg.SampleRate)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "whisper_server", "write segment", "", err)
	}
	defer os.Remove(path)

	body, contentType, err := c.buildForm(path)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "whisper_server", "build form", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/inference", body)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "whisper_server", "request", c.cfg.URL, err)
	}
	req.Header.Set("Content-Type", contentType)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrTransient, "whisper_server", "inference", c.cfg.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "whisper_server", "read response", "", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(statusMarker(resp.StatusCode), "whisper_server", "inference",
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), nil)
	}

	var payload inferenceResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "whisper_server", "decode response", "", err)
	}
	if payload.Error != "" {
		return "", services.Wrap(services.ErrExternalTool, "whisper_server", "inference", payload.Error, nil)
	}
	c.logger.Debug("segment transcribed", logging.Duration("latency", time.Since(started)))
	return payload.Text, nil
}

func (c *Client) buildForm(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	b := &bytes.Buffer{}
	mp := multipart.NewWriter(b)
	fields := map[string]string{
		"response_format": "json",
		"temperature":     "0.0",
	}
	if c.cfg.Language != "" {
		fields["language"] = c.cfg.Language
	}
	for key, value := range fields {
		if err := mp.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}
	fp, err := mp.CreateFormFile("file", "segment.wav")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fp, f); err != nil {
		return nil, "", err
	}
	if err := mp.Close(); err != nil {
		return nil, "", err
	}
	return b, mp.FormDataContentType(), nil
}

func statusMarker(status int) error {
	switch {
	case status == http.StatusNotFound:
		return services.ErrConfiguration
	case status >= http.StatusInternalServerError:
		return services.ErrTransient
	default:
		return services.ErrValidation
	}
}
