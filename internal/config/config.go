package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Transcription contains the batch and model selection settings.
type Transcription struct {
	// Backend selects the speech-to-text model runtime
	// ("whisperx", "openai", or "whisper_server").
	Backend string `toml:"backend"`
	// Model is the backend-specific model name (e.g., "base", "whisper-1").
	Model string `toml:"model"`
	// Language is an optional language hint passed to the backend. Empty lets
	// the backend decide.
	Language string `toml:"language"`
	// SegmentSeconds is the fixed window length fed to the model.
	SegmentSeconds int `toml:"segment_seconds"`
	// SampleRate is the decode rate for every input file.
	SampleRate int `toml:"sample_rate"`
	// Workers bounds the number of files transcribed concurrently.
	// Zero means one worker per CPU.
	Workers int `toml:"workers"`
	// FileTimeoutSeconds bounds a single file's transcription. Zero disables it.
	FileTimeoutSeconds int `toml:"file_timeout_seconds"`
	// SerializeInference forces one model call at a time across all workers.
	SerializeInference bool `toml:"serialize_inference"`
}

// WhisperX contains settings for the uvx-driven WhisperX backend.
type WhisperX struct {
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
	WorkDir     string `toml:"work_dir"`
}

// OpenAI contains settings for the OpenAI-compatible transcription API.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// WhisperServer contains settings for a whisper.cpp HTTP server.
type WhisperServer struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Tools names the external executables audioscribe invokes.
type Tools struct {
	FFmpeg string `toml:"ffmpeg"`
	UVX    string `toml:"uvx"`
}

// History contains configuration for the run history database.
type History struct {
	Enabled bool `toml:"enabled"`
	// HashSources stores a BLAKE3 fingerprint of each source file.
	HashSources bool `toml:"hash_sources"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`

	// RetentionDays prunes per-run log files older than this many days.
	// Zero keeps them forever.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for audioscribe.
//
// Configuration sections by subsystem:
//   - Paths: input/output folders plus state and log directories
//   - Transcription: backend selection, segment length, worker pool size
//   - WhisperX: local WhisperX runtime options
//   - OpenAI: OpenAI-compatible transcription API credentials
//   - WhisperServer: whisper.cpp server endpoint
//   - Tools: external executable names
//   - History: SQLite run ledger
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	WhisperX      WhisperX      `toml:"whisperx"`
	OpenAI        OpenAI        `toml:"openai"`
	WhisperServer WhisperServer `toml:"whisper_server"`
	Tools         Tools         `toml:"tools"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/audioscribe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Reconcile re-runs normalization and validation after in-memory edits such
// as command-line overrides.
func (c *Config) Reconcile() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/audioscribe/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("audioscribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output, state, and log directories.
// The input directory is never created: a missing input folder is a
// discovery failure reported by the batch runner.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SegmentLength returns the number of samples in one model input window.
func (c *Config) SegmentLength() int {
	return c.Transcription.SegmentSeconds * c.Transcription.SampleRate
}

// FFmpegBinary returns the ffmpeg executable used for audio decoding.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFmpeg); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// UVXBinary returns the uvx executable used to launch WhisperX.
func (c *Config) UVXBinary() string {
	if bin := strings.TrimSpace(c.Tools.UVX); bin != "" {
		return bin
	}
	return defaultUVXBinary
}

// HistoryPath returns the SQLite database path for run history.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// RunLogDir returns the directory holding one JSON log file per batch run.
func (c *Config) RunLogDir() string {
	return filepath.Join(c.Paths.LogDir, "runs")
}

// LockPath returns the batch lock file path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "audioscribe.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "audioscribe")
	}
	return defaultStateDirFallback
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	if redacted.OpenAI.APIKey != "" {
		redacted.OpenAI.APIKey = "<redacted>"
	}
	if redacted.WhisperX.HFToken != "" {
		redacted.WhisperX.HFToken = "<redacted>"
	}
	data, err := toml.Marshal(redacted)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
