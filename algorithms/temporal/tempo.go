package temporal

import (
	"math"
	"sort"

	"github.com/goccmack/godsp"
	"github.com/goccmack/godsp/dwt"
	"github.com/goccmack/godsp/peaks"
)

// TempoParams contains parameters for tempo estimation
type TempoParams struct {
	DWTLevel     int     `json:"dwt_level"`       // Wavelet scales for the onset envelope
	MinBPM       float64 `json:"min_bpm"`         // Lower bound of the reported range
	MaxBPM       float64 `json:"max_bpm"`         // Upper bound of the reported range
	MinPeakSepMs int     `json:"min_peak_sep_ms"` // Minimum onset peak separation
}

// DefaultTempoParams returns parameters tuned for full music tracks
func DefaultTempoParams() TempoParams {
	return TempoParams{
		DWTLevel:     4,
		MinBPM:       60.0,
		MaxBPM:       200.0,
		MinPeakSepMs: 250,
	}
}

// TempoEstimate is the result of tempo estimation. Valid is false when the
// signal was too short or too quiet to carry a usable beat; callers must
// treat that as "unknown", never as zero BPM.
type TempoEstimate struct {
	BPM        float64 `json:"bpm"`
	Confidence float64 `json:"confidence"`
	Valid      bool    `json:"valid"`
}

// TempoEstimator estimates a single BPM value for a waveform segment.
//
// The onset envelope is built from a Daubechies-4 discrete wavelet transform:
// absolute detail coefficients at each scale are downsampled to a common
// rate and summed, which concentrates percussive energy rises. The envelope
// is then autocorrelated and the strongest periodicity inside the BPM range
// wins. When autocorrelation finds no periodicity, inter-onset intervals
// from envelope peak picking serve as a fallback.
type TempoEstimator struct {
	params TempoParams
}

// NewTempoEstimator creates a tempo estimator with default parameters
func NewTempoEstimator() *TempoEstimator {
	return &TempoEstimator{params: DefaultTempoParams()}
}

// NewTempoEstimatorWithParams creates a tempo estimator with custom parameters
func NewTempoEstimatorWithParams(params TempoParams) *TempoEstimator {
	return &TempoEstimator{params: params}
}

// Estimate estimates the tempo of a waveform segment in BPM
func (te *TempoEstimator) Estimate(signal []float64, sampleRate int) TempoEstimate {
	if sampleRate <= 0 || len(signal) < sampleRate {
		// Under a second of audio carries no measurable beat
		return TempoEstimate{}
	}

	scale := 1 << te.params.DWTLevel

	// The DWT needs a length divisible by 2^level
	trimmed := signal[:len(signal)-len(signal)%scale]
	if len(trimmed) < scale*4 {
		return TempoEstimate{}
	}

	envelope := te.onsetEnvelope(trimmed)
	if len(envelope) == 0 {
		return TempoEstimate{}
	}

	envelopeRate := float64(sampleRate) / float64(scale)

	bpm, confidence, ok := tempoFromEnvelope(envelope, envelopeRate, te.params.MinBPM, te.params.MaxBPM)
	if !ok {
		bpm, ok = te.tempoFromOnsetIntervals(envelope, envelopeRate)
		confidence = 0.0
	}
	if !ok {
		return TempoEstimate{}
	}

	return TempoEstimate{
		BPM:        foldToRange(bpm, te.params.MinBPM, te.params.MaxBPM),
		Confidence: confidence,
		Valid:      true,
	}
}

// onsetEnvelope computes the summed multi-scale wavelet envelope.
// Returns nil for effectively silent input.
func (te *TempoEstimator) onsetEnvelope(signal []float64) []float64 {
	transform := dwt.Daubechies4(signal, te.params.DWTLevel)
	coefficients := transform.GetCoefficients()

	absolute := godsp.AbsAll(coefficients)
	downsampled := godsp.DownSampleAll(absolute)
	envelope := godsp.SumVectors(downsampled)

	average := godsp.Average(envelope)
	if average < 1e-9 {
		return nil
	}

	return godsp.DivS(envelope, average)
}

// tempoFromEnvelope finds the dominant periodicity of the onset envelope by
// autocorrelating its half-wave rectified derivative.
func tempoFromEnvelope(envelope []float64, envelopeRate, minBPM, maxBPM float64) (float64, float64, bool) {
	if len(envelope) < 4 || envelopeRate <= 0 {
		return 0, 0, false
	}

	// Beats show up as energy rises, so keep only positive changes
	flux := make([]float64, len(envelope))
	for i := 1; i < len(envelope); i++ {
		if diff := envelope[i] - envelope[i-1]; diff > 0 {
			flux[i] = diff
		}
	}

	minLag := int(envelopeRate * 60.0 / maxBPM)
	maxLag := int(envelopeRate * 60.0 / minBPM)

	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(flux)/2 {
		maxLag = len(flux)/2 - 1
	}
	if minLag >= maxLag {
		return 0, 0, false
	}

	zeroLag := 0.0
	for _, val := range flux {
		zeroLag += val * val
	}
	if zeroLag <= 0 {
		return 0, 0, false
	}

	bestLag := 0
	bestCorr := 0.0

	for lag := minLag; lag <= maxLag; lag++ {
		corr := 0.0
		for i := 0; i+lag < len(flux); i++ {
			corr += flux[i] * flux[i+lag]
		}
		corr /= zeroLag

		// Local maximum inside the candidate range
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return 0, 0, false
	}

	bpm := envelopeRate * 60.0 / float64(bestLag)
	return bpm, math.Min(bestCorr, 1.0), true
}

// tempoFromOnsetIntervals estimates tempo as the median inter-onset interval
// of envelope peaks
func (te *TempoEstimator) tempoFromOnsetIntervals(envelope []float64, envelopeRate float64) (float64, bool) {
	separation := int(float64(te.params.MinPeakSepMs) / 1000.0 * envelopeRate)
	if separation < 1 {
		separation = 1
	}

	onsetPeaks := peaks.Get(envelope, separation)
	if len(onsetPeaks) < 2 {
		return 0, false
	}
	sort.Ints(onsetPeaks)

	intervals := make([]float64, 0, len(onsetPeaks)-1)
	for i := 1; i < len(onsetPeaks); i++ {
		interval := float64(onsetPeaks[i]-onsetPeaks[i-1]) / envelopeRate
		if interval > 0 {
			intervals = append(intervals, interval)
		}
	}
	if len(intervals) == 0 {
		return 0, false
	}

	sort.Float64s(intervals)
	median := intervals[len(intervals)/2]
	if median <= 0 {
		return 0, false
	}

	return 60.0 / median, true
}

// foldToRange doubles or halves a BPM estimate until it lands in
// [minBPM, maxBPM]. Automated trackers routinely detect octave-shifted
// tempi for identical rhythmic content.
func foldToRange(bpm, minBPM, maxBPM float64) float64 {
	if bpm <= 0 {
		return bpm
	}
	for bpm < minBPM {
		bpm *= 2
	}
	for bpm > maxBPM {
		bpm /= 2
	}
	return bpm
}
