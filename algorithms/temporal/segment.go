package temporal

import (
	"github.com/RyanBlaney/mixkey/algorithms/common"
)

// SegmentParams contains parameters for segment selection
type SegmentParams struct {
	TargetSeconds float64 `json:"target_seconds"` // Length of the selected window
	StepSeconds   float64 `json:"step_seconds"`   // Stride between candidate windows
}

// DefaultSegmentParams returns the standard selection window: a 30 second
// segment scanned at 5 second steps
func DefaultSegmentParams() SegmentParams {
	return SegmentParams{
		TargetSeconds: 30.0,
		StepSeconds:   5.0,
	}
}

// SegmentSelector picks a short, high-energy, musically representative
// window out of a longer waveform. Long quiet intros and ambient tails
// would otherwise bias tempo and key estimates; scanning in coarse steps
// keeps the cost bounded to roughly duration/step windows.
type SegmentSelector struct {
	params SegmentParams
}

// NewSegmentSelector creates a segment selector with default parameters
func NewSegmentSelector() *SegmentSelector {
	return &SegmentSelector{params: DefaultSegmentParams()}
}

// NewSegmentSelectorWithParams creates a segment selector with custom parameters
func NewSegmentSelectorWithParams(params SegmentParams) *SegmentSelector {
	return &SegmentSelector{params: params}
}

// Select returns the contiguous window of at most TargetSeconds with maximum
// signal energy. Signals no longer than the target window (including empty
// ones) are returned unchanged.
func (ss *SegmentSelector) Select(signal []float64, sampleRate int) []float64 {
	if len(signal) == 0 || sampleRate <= 0 {
		return signal
	}

	segmentLen := int(ss.params.TargetSeconds * float64(sampleRate))
	if segmentLen <= 0 || len(signal) <= segmentLen {
		return signal
	}

	step := int(ss.params.StepSeconds * float64(sampleRate))
	if step <= 0 {
		step = 1
	}

	bestStart := 0
	bestEnergy := -1.0

	for start := 0; start <= len(signal)-segmentLen; start += step {
		energy := common.SumSquares(signal[start : start+segmentLen])
		if energy > bestEnergy {
			bestEnergy = energy
			bestStart = start
		}
	}

	return signal[bestStart : bestStart+segmentLen]
}
