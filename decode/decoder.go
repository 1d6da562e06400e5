// Package decode turns audio files into mono float64 PCM for analysis.
// WAV files are decoded natively; every other container goes through an
// ffmpeg subprocess, which keeps codec support broad without CGo bindings.
package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/mixkey/logging"
)

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     `json:"-"` // Mono PCM samples
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
}

// Config holds decoder configuration
type Config struct {
	TargetSampleRate int           `json:"target_sample_rate"` // ffmpeg output rate
	MaxDuration      time.Duration `json:"max_duration"`       // 0 = no cap
	FFmpegPath       string        `json:"ffmpeg_path"`        // Path to ffmpeg binary
	Timeout          time.Duration `json:"timeout"`            // Per-file subprocess timeout
}

// DefaultConfig returns the decoder configuration used by the analysis
// pipeline: mono 22050 Hz, capped to the first 90 seconds
func DefaultConfig() *Config {
	return &Config{
		TargetSampleRate: 22050,
		MaxDuration:      90 * time.Second,
		FFmpegPath:       "ffmpeg", // Assume in PATH
		Timeout:          60 * time.Second,
	}
}

// Decoder decodes audio files to mono PCM
type Decoder struct {
	config *Config
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *Config) *Decoder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes an audio file and returns mono PCM data. The context
// cancels an in-flight ffmpeg subprocess.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"filename":  filename,
	})

	logger.Debug("Starting audio file decode")

	var (
		audio *AudioData
		err   error
	)
	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		audio, err = d.decodeWAV(filename)
	} else {
		audio, err = d.decodeWithFFmpeg(ctx, filename)
	}
	if err != nil {
		logger.Error(err, "Audio decode failed")
		return nil, err
	}

	logger.Debug("Audio decoded", logging.Fields{
		"sample_rate": audio.SampleRate,
		"duration":    audio.Duration.Seconds(),
		"samples":     len(audio.PCM),
	})

	return audio, nil
}

// decodeWithFFmpeg shells out to ffmpeg for downmixed, resampled PCM
func (d *Decoder) decodeWithFFmpeg(ctx context.Context, filename string) (*AudioData, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", filename,
	}
	if d.config.MaxDuration > 0 {
		args = append(args, "-t", strconv.FormatFloat(d.config.MaxDuration.Seconds(), 'f', -1, 64))
	}
	args = append(args,
		"-f", "f64le",
		"-acodec", "pcm_f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg decode %s: %w (%s)", filename, err, strings.TrimSpace(stderr.String()))
	}

	raw := stdout.Bytes()
	pcm := make([]float64, len(raw)/8)
	for i := range pcm {
		bits := binary.LittleEndian.Uint64(raw[i*8:])
		pcm[i] = math.Float64frombits(bits)
	}

	if len(pcm) == 0 {
		return nil, fmt.Errorf("ffmpeg decode %s: no audio samples", filename)
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: d.config.TargetSampleRate,
		Duration:   durationOf(len(pcm), d.config.TargetSampleRate),
	}, nil
}

func durationOf(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}
