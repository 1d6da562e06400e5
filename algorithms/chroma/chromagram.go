package chroma

// NumPitchClasses is the number of semitone classes in an octave
const NumPitchClasses = 12

// PitchClassLabels are the chroma row labels, ascending from C
var PitchClassLabels = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Chromagram is a 12-row energy matrix, one row per pitch class (C..B),
// one column per analysis frame. Energies are non-negative.
type Chromagram struct {
	Energies [][]float64 `json:"energies"` // [NumPitchClasses][frames]
	Frames   int         `json:"frames"`
}

// Empty reports whether the chromagram has no frames
func (c *Chromagram) Empty() bool {
	return c == nil || c.Frames == 0 || len(c.Energies) != NumPitchClasses
}

// MeanVector averages the chromagram across time into a 12-element vector
func (c *Chromagram) MeanVector() []float64 {
	mean := make([]float64, NumPitchClasses)
	if c.Empty() {
		return mean
	}

	for pc := 0; pc < NumPitchClasses; pc++ {
		sum := 0.0
		for _, energy := range c.Energies[pc] {
			sum += energy
		}
		mean[pc] = sum / float64(c.Frames)
	}

	return mean
}
