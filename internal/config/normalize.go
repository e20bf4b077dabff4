package config

import (
	"fmt"
	"os"
	"strings"

	"audioscribe/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	if err := c.normalizeWhisperX(); err != nil {
		return err
	}
	c.normalizeOpenAI()
	c.normalizeWhisperServer()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() error {
	c.Transcription.Backend = strings.ToLower(strings.TrimSpace(c.Transcription.Backend))
	c.Transcription.Backend = strings.ReplaceAll(c.Transcription.Backend, "-", "_")
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = defaultBackend
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		switch c.Transcription.Backend {
		case BackendWhisperX:
			c.Transcription.Model = defaultWhisperXModel
		case BackendOpenAI:
			c.Transcription.Model = defaultOpenAIModel
		}
	}
	if c.Transcription.SegmentSeconds == 0 {
		c.Transcription.SegmentSeconds = defaultSegmentSeconds
	}
	if c.Transcription.SampleRate == 0 {
		c.Transcription.SampleRate = defaultSampleRate
	}
	if lang := strings.TrimSpace(c.Transcription.Language); lang != "" {
		normalized, err := language.Normalize(lang)
		if err != nil {
			return fmt.Errorf("transcription.language: %w", err)
		}
		c.Transcription.Language = normalized
	} else {
		c.Transcription.Language = ""
	}
	return nil
}

func (c *Config) normalizeWhisperX() error {
	c.WhisperX.VADMethod = strings.ToLower(strings.TrimSpace(c.WhisperX.VADMethod))
	if c.WhisperX.VADMethod == "" {
		c.WhisperX.VADMethod = defaultVADMethod
	}
	c.WhisperX.HFToken = strings.TrimSpace(c.WhisperX.HFToken)
	if c.WhisperX.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		}
	}
	if c.WhisperX.WorkDir = strings.TrimSpace(c.WhisperX.WorkDir); c.WhisperX.WorkDir == "" {
		return nil
	}
	var err error
	if c.WhisperX.WorkDir, err = expandPath(c.WhisperX.WorkDir); err != nil {
		return fmt.Errorf("whisperx.work_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
	if c.OpenAI.BaseURL == "" {
		if value, ok := os.LookupEnv("OPENAI_BASE_URL"); ok {
			c.OpenAI.BaseURL = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimRight(c.OpenAI.BaseURL, "/")
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeoutSeconds
	}
}

func (c *Config) normalizeWhisperServer() {
	if value, ok := os.LookupEnv("AUDIOSCRIBE_WHISPER_SERVER_URL"); ok && strings.TrimSpace(value) != "" {
		c.WhisperServer.URL = strings.TrimSpace(value)
	}
	c.WhisperServer.URL = strings.TrimRight(strings.TrimSpace(c.WhisperServer.URL), "/")
	if c.WhisperServer.URL == "" {
		c.WhisperServer.URL = defaultWhisperServerURL
	}
	if c.WhisperServer.TimeoutSeconds <= 0 {
		c.WhisperServer.TimeoutSeconds = defaultWhisperServerTimeoutSec
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.UVX = strings.TrimSpace(c.Tools.UVX)
	if c.Tools.UVX == "" {
		c.Tools.UVX = defaultUVXBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
