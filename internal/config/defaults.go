package config

import "runtime"

const (
	defaultInputDir                = "audio"
	defaultOutputDir               = "transcribed_text"
	defaultStateDirFallback        = "~/.local/state/audioscribe"
	defaultLogDir                  = "~/.local/state/audioscribe/logs"
	defaultBackend                 = BackendWhisperX
	defaultWhisperXModel           = "base"
	defaultOpenAIModel             = "whisper-1"
	defaultSegmentSeconds          = 30
	defaultSampleRate              = 16000
	defaultVADMethod               = "silero"
	defaultOpenAITimeoutSeconds    = 120
	defaultWhisperServerURL        = "http://127.0.0.1:8080"
	defaultWhisperServerTimeoutSec = 120
	defaultFFmpegBinary            = "ffmpeg"
	defaultUVXBinary               = "uvx"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogRetentionDays        = 30
)

// Supported transcription backends.
const (
	BackendWhisperX      = "whisperx"
	BackendOpenAI        = "openai"
	BackendWhisperServer = "whisper_server"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir(),
			LogDir:    defaultLogDir,
		},
		Transcription: Transcription{
			Backend:        defaultBackend,
			SegmentSeconds: defaultSegmentSeconds,
			SampleRate:     defaultSampleRate,
		},
		WhisperX: WhisperX{
			VADMethod: defaultVADMethod,
		},
		OpenAI: OpenAI{
			TimeoutSeconds: defaultOpenAITimeoutSeconds,
		},
		WhisperServer: WhisperServer{
			URL:            defaultWhisperServerURL,
			TimeoutSeconds: defaultWhisperServerTimeoutSec,
		},
		Tools: Tools{
			FFmpeg: defaultFFmpegBinary,
			UVX:    defaultUVXBinary,
		},
		History: History{
			Enabled:     true,
			HashSources: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// EffectiveWorkers resolves the configured pool size.
func (c *Config) EffectiveWorkers() int {
	if c.Transcription.Workers > 0 {
		return c.Transcription.Workers
	}
	return runtime.NumCPU()
}
