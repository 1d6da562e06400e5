package tonal

import (
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/mixkey/algorithms/chroma"
	"github.com/RyanBlaney/mixkey/algorithms/common"
)

// PitchClass is a semitone class, 0 = C through 11 = B
type PitchClass int

// Pitch class constants in ascending semitone order
const (
	PitchC PitchClass = iota
	PitchCSharp
	PitchD
	PitchDSharp
	PitchE
	PitchF
	PitchFSharp
	PitchG
	PitchGSharp
	PitchA
	PitchASharp
	PitchB
)

var pitchClassNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (pc PitchClass) String() string {
	if pc < 0 || int(pc) >= len(pitchClassNames) {
		return "?"
	}
	return pitchClassNames[pc]
}

// Mode represents major or minor mode
type Mode int

const (
	ModeMajor Mode = iota
	ModeMinor
)

func (m Mode) String() string {
	if m == ModeMinor {
		return "minor"
	}
	return "major"
}

// KeyEstimate is the result of key estimation. Valid is false when the
// chromagram was empty or carried no energy; callers must treat that as
// "unknown", not as C major.
type KeyEstimate struct {
	PitchClass PitchClass `json:"pitch_class"`
	Mode       Mode       `json:"mode"`
	Score      float64    `json:"score"` // Winning profile correlation
	Valid      bool       `json:"valid"`
}

// String returns a human-readable key name such as "A minor"
func (ke KeyEstimate) String() string {
	if !ke.Valid {
		return "unknown"
	}
	return ke.PitchClass.String() + " " + ke.Mode.String()
}

// Krumhansl-Schmuckler tonal profiles, empirically derived from listener
// probe-tone ratings. Index 0 is the tonic. The raw weights are kept as
// published; each rotation is peak-normalized individually at scoring time,
// which is not the same as normalizing the base profile once up front.
var (
	krumhanslMajor = []float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	krumhanslMinor = []float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// KeyEstimator estimates musical key and mode from a chromagram using
// Krumhansl-Schmuckler profile correlation
type KeyEstimator struct{}

// NewKeyEstimator creates a new key estimator
func NewKeyEstimator() *KeyEstimator {
	return &KeyEstimator{}
}

// EstimateFromChromagram estimates the key of a chromagram. The chromagram
// is averaged across time, peak-normalized, and scored against all 24
// rotated major/minor profiles; the best-scoring pair wins.
//
// The scan runs in ascending pitch-class order with major tried before
// minor, keeping a running maximum under strict greater-than. Ties
// therefore resolve to the earliest candidate in that order, which makes
// the output reproducible for identical input.
func (ke *KeyEstimator) EstimateFromChromagram(cg *chroma.Chromagram) KeyEstimate {
	if cg.Empty() {
		return KeyEstimate{}
	}

	chromaMean := cg.MeanVector()
	if floats.Max(chromaMean) <= 0 {
		return KeyEstimate{}
	}
	chromaMean = common.PeakNormalize(chromaMean)

	best := KeyEstimate{Score: -1.0}

	for tonic := 0; tonic < chroma.NumPitchClasses; tonic++ {
		rotatedMajor := common.PeakNormalize(common.Rotate(krumhanslMajor, tonic))
		rotatedMinor := common.PeakNormalize(common.Rotate(krumhanslMinor, tonic))

		if score := floats.Dot(chromaMean, rotatedMajor); score > best.Score {
			best = KeyEstimate{PitchClass: PitchClass(tonic), Mode: ModeMajor, Score: score, Valid: true}
		}
		if score := floats.Dot(chromaMean, rotatedMinor); score > best.Score {
			best = KeyEstimate{PitchClass: PitchClass(tonic), Mode: ModeMinor, Score: score, Valid: true}
		}
	}

	return best
}
