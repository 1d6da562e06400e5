package decode

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavChunkFrames is the number of frames read per PCM buffer fill
const wavChunkFrames = 8192

// decodeWAV reads a WAV file natively, downmixing to mono and honoring the
// configured duration cap. WAV keeps its native sample rate; the analysis
// algorithms take the rate as a parameter, so no resample is needed.
func (d *Decoder) decodeWAV(filename string) (*AudioData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("decode %s: not a valid WAV file", filename)
	}

	sampleRate := int(dec.SampleRate)
	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if sampleRate <= 0 || channels <= 0 || bitDepth <= 0 {
		return nil, fmt.Errorf("decode %s: malformed WAV header", filename)
	}

	maxSamples := 0
	if d.config.MaxDuration > 0 {
		maxSamples = int(d.config.MaxDuration.Seconds() * float64(sampleRate))
	}

	// Full-scale divisor for the source bit depth
	scale := float64(int64(1) << (bitDepth - 1))

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   make([]int, wavChunkFrames*channels),
	}

	var mono []float64
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filename, err)
		}
		if n == 0 {
			break
		}

		// Downmix interleaved channels
		for i := 0; i+channels <= n; i += channels {
			sum := 0.0
			for ch := 0; ch < channels; ch++ {
				sum += float64(buf.Data[i+ch]) / scale
			}
			mono = append(mono, sum/float64(channels))
		}

		if maxSamples > 0 && len(mono) >= maxSamples {
			mono = mono[:maxSamples]
			break
		}
	}

	if len(mono) == 0 {
		return nil, fmt.Errorf("decode %s: no audio samples", filename)
	}

	return &AudioData{
		PCM:        mono,
		SampleRate: sampleRate,
		Duration:   durationOf(len(mono), sampleRate),
	}, nil
}
