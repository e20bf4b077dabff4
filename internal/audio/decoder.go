package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"audioscribe/internal/logging"
	"audioscribe/internal/services"
)

// FFmpegCommand is the default ffmpeg executable name.
const FFmpegCommand = "ffmpeg"

// Loader decodes a file into mono samples at a fixed rate.
type Loader interface {
	Load(ctx context.Context, path string) (Buffer, error)
}

// CommandRunner executes an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Decoder is the default Loader. It reads compatible WAV files natively and
// hands everything else to ffmpeg.
type Decoder struct {
	ffmpegBinary string
	sampleRate   int
	logger       *slog.Logger
	run          CommandRunner
}

// NewDecoder creates a decoder producing samples at sampleRate.
func NewDecoder(ffmpegBinary string, sampleRate int, logger *slog.Logger) *Decoder {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = FFmpegCommand
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Decoder{
		ffmpegBinary: ffmpegBinary,
		sampleRate:   sampleRate,
		logger:       logging.NewComponentLogger(logger, "decoder"),
		run:          runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *Decoder) WithCommandRunner(runner CommandRunner) {
	if runner == nil {
		runner = runCommand
	}
	d.run = runner
}

// SampleRate reports the rate every decoded buffer uses.
func (d *Decoder) SampleRate() int {
	return d.sampleRate
}

var errNoSamples = errors.New("no audio samples decoded")

// Load decodes path into a mono buffer.
func (d *Decoder) Load(ctx context.Context, path string) (Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		buf, ok, err := d.loadNativeWAV(path)
		if err != nil {
			return nil, err
		}
		if ok {
			if len(buf) == 0 {
				return nil, services.Wrap(services.ErrValidation, "decoder", "wav", path, errNoSamples)
			}
			d.logger.Debug("decoded wav natively",
				logging.String(logging.FieldFile, path),
				logging.Int("samples", len(buf)),
			)
			return buf, nil
		}
	}
	return d.loadFFmpeg(ctx, path)
}

func (d *Decoder) loadNativeWAV(path string) (Buffer, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, services.Wrap(services.ErrNotFound, "decoder", "open", path, err)
	}
	defer f.Close()
	buf, ok, err := readNativeWAV(f, d.sampleRate)
	if err != nil {
		return nil, true, services.Wrap(services.ErrValidation, "decoder", "wav", path, err)
	}
	return buf, ok, nil
}

func (d *Decoder) loadFFmpeg(ctx context.Context, path string) (Buffer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "decoder", "stat", path, err)
	}
	out, err := d.run(ctx, d.ffmpegBinary, buildFFmpegArgs(path, d.sampleRate)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrExternalTool, "decoder", "ffmpeg", path, err)
	}
	buf, err := parseFloat32LE(out)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "decoder", "pcm", path, err)
	}
	if len(buf) == 0 {
		return nil, services.Wrap(services.ErrValidation, "decoder", "pcm", path, errNoSamples)
	}
	d.logger.Debug("decoded via ffmpeg",
		logging.String(logging.FieldFile, path),
		logging.Int("samples", len(buf)),
	)
	return buf, nil
}

// buildFFmpegArgs asks ffmpeg for mono float32 PCM on stdout.
func buildFFmpegArgs(source string, sampleRate int) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-threads", "0",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-f", "f32le",
		"-ac", "1",
		"-acodec", "pcm_f32le",
		"-ar", strconv.Itoa(sampleRate),
		"-",
	}
}

func parseFloat32LE(data []byte) (Buffer, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("pcm stream length %d is not a multiple of 4", len(data))
	}
	out := make(Buffer, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
