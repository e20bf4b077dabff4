package deps

import "audioscribe/internal/config"

// Requirements lists the external binaries the configured backend needs.
// ffmpeg is always required because only 16 kHz WAV sources decode natively.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Decodes compressed and resampled audio sources",
		},
	}
	reqs = append(reqs, Requirement{
		Name:        "uvx",
		Command:     cfg.UVXBinary(),
		Description: "Runs WhisperX for the whisperx backend",
		Optional:    cfg.Transcription.Backend != config.BackendWhisperX,
	})
	return reqs
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
