package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateWhisperX(); err != nil {
		return err
	}
	if err := c.validateWhisperServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.input_dir")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case BackendWhisperX, BackendOpenAI, BackendWhisperServer:
	default:
		return fmt.Errorf("transcription.backend: unsupported value %q (expected %s, %s, or %s)",
			c.Transcription.Backend, BackendWhisperX, BackendOpenAI, BackendWhisperServer)
	}
	if c.Transcription.SegmentSeconds <= 0 {
		return errors.New("transcription.segment_seconds must be positive")
	}
	if c.Transcription.SampleRate <= 0 {
		return errors.New("transcription.sample_rate must be positive")
	}
	if c.Transcription.Workers < 0 {
		return errors.New("transcription.workers must be zero or positive")
	}
	if c.Transcription.FileTimeoutSeconds < 0 {
		return errors.New("transcription.file_timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateWhisperX() error {
	switch c.WhisperX.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("whisperx.vad_method: unsupported value %q (expected silero or pyannote)", c.WhisperX.VADMethod)
	}
	return nil
}

func (c *Config) validateWhisperServer() error {
	if c.Transcription.Backend != BackendWhisperServer {
		return nil
	}
	parsed, err := url.Parse(c.WhisperServer.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("whisper_server.url: invalid value %q", c.WhisperServer.URL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
