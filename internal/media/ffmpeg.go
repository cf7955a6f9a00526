package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reelworthy/api/internal/detect"
	"github.com/reelworthy/api/internal/logging"
)

// Audio decoded for classification: mono 16 kHz, which both the event
// model and whisper expect.
const (
	decodeSampleRate = 16000
	decodeChannels   = 1
)

// FFmpeg wraps the ffmpeg/ffprobe binaries.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	log         zerolog.Logger
}

func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		log:         logging.WithComponent("ffmpeg"),
	}
}

// ExtractAudio decodes the input's audio track to a mono 16 kHz waveform
// held in memory.
func (f *FFmpeg) ExtractAudio(ctx context.Context, input string) (detect.AudioSample, error) {
	f.log.Debug().Str("input", input).Msg("decoding audio track")

	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-i", input,
		"-vn",
		"-ac", strconv.Itoa(decodeChannels),
		"-ar", strconv.Itoa(decodeSampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return detect.AudioSample{}, fmt.Errorf("ffmpeg audio decode: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return detect.AudioSample{
		Samples: decodePCM16(stdout.Bytes()),
		Rate:    decodeSampleRate,
	}, nil
}

// ExtractAudioFile writes the input's audio track as a mono 16 kHz WAV,
// the format the transcriber consumes.
func (f *FFmpeg) ExtractAudioFile(ctx context.Context, input, outWav string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", input,
		"-vn",
		"-ac", strconv.Itoa(decodeChannels),
		"-ar", strconv.Itoa(decodeSampleRate),
		"-acodec", "pcm_s16le",
		outWav,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg audio extract: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Duration probes the container duration in seconds.
func (f *FFmpeg) Duration(ctx context.Context, input string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration parse: %w", err)
	}
	return dur, nil
}

// Cut trims [start, start+duration) from src into out using stream copy:
// fast and lossless, no re-encoding. ffmpeg exits non-zero on unreadable
// input, which surfaces as an error here.
func (f *FFmpeg) Cut(ctx context.Context, src string, start, duration float64, out string) error {
	f.log.Debug().
		Str("src", src).
		Float64("start", start).
		Float64("duration", duration).
		Str("out", out).
		Msg("cutting clip")

	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", formatSeconds(start),
		"-i", src,
		"-t", formatSeconds(duration),
		"-c", "copy",
		out,
	)
	if cmbOut, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg cut: %w: %s", err, strings.TrimSpace(string(cmbOut)))
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(math.Max(v, 0), 'f', 3, 64)
}

// decodePCM16 converts little-endian signed 16-bit PCM to float64 in
// [-1, 1].
func decodePCM16(raw []byte) []float64 {
	n := len(raw) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float64(v) / 32768
	}
	return samples
}
