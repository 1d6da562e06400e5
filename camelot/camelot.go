// Package camelot maps musical keys onto the Camelot wheel notation used by
// DJs for harmonic mixing. Codes are two to three characters: a wheel
// position 1-12 followed by A (minor) or B (major), e.g. "8A" for A minor.
package camelot

import (
	"strconv"

	"github.com/RyanBlaney/mixkey/algorithms/tonal"
)

// Unknown is the sentinel code for tracks whose key could not be estimated
const Unknown = "UNK"

// ModeMinor and ModeMajor are the mode letters of a Camelot code
const (
	ModeMinor byte = 'A'
	ModeMajor byte = 'B'
)

// WheelPositions is the number of positions on the Camelot wheel
const WheelPositions = 12

// wheel maps each pitch class (ascending from C) to its major and minor
// Camelot codes. The table is fixed by the Camelot system itself.
var wheel = [12]struct {
	major string
	minor string
}{
	{"8B", "5A"},   // C
	{"3B", "12A"},  // C#
	{"10B", "7A"},  // D
	{"5B", "2A"},   // D#
	{"12B", "9A"},  // E
	{"7B", "4A"},   // F
	{"2B", "11A"},  // F#
	{"9B", "6A"},   // G
	{"4B", "1A"},   // G#
	{"11B", "8A"},  // A
	{"6B", "3A"},   // A#
	{"1B", "10A"},  // B
}

// FromKey converts a key estimate to its Camelot code. Invalid estimates
// map to Unknown.
func FromKey(estimate tonal.KeyEstimate) string {
	if !estimate.Valid {
		return Unknown
	}
	return FromPitchClass(estimate.PitchClass, estimate.Mode)
}

// FromPitchClass converts a (pitch class, mode) pair to its Camelot code.
// Pitch classes outside 0..11 map to Unknown.
func FromPitchClass(pc tonal.PitchClass, mode tonal.Mode) string {
	if pc < 0 || int(pc) >= len(wheel) {
		return Unknown
	}
	if mode == tonal.ModeMinor {
		return wheel[pc].minor
	}
	return wheel[pc].major
}

// Parse splits a Camelot code into its wheel position and mode letter.
// Returns ok=false for Unknown, empty, or malformed codes.
func Parse(code string) (position int, mode byte, ok bool) {
	if len(code) < 2 || code == Unknown {
		return 0, 0, false
	}

	mode = code[len(code)-1]
	if mode != ModeMinor && mode != ModeMajor {
		return 0, 0, false
	}

	position, err := strconv.Atoi(code[:len(code)-1])
	if err != nil || position < 1 || position > WheelPositions {
		return 0, 0, false
	}

	return position, mode, true
}

// WheelDistance is the circular distance between two wheel positions:
// min(|a-b|, 12-|a-b|). Positions 12 and 1 are adjacent.
func WheelDistance(a, b int) int {
	dist := a - b
	if dist < 0 {
		dist = -dist
	}
	if wrapped := WheelPositions - dist; wrapped < dist {
		return wrapped
	}
	return dist
}

// Relation classifies how two codes sit on the wheel
type Relation int

const (
	// RelationNone covers unknown codes and distant positions
	RelationNone Relation = iota
	// RelationIdentical means the same code
	RelationIdentical
	// RelationRelative means same position, opposite mode (relative major/minor)
	RelationRelative
	// RelationAdjacent means same mode, neighbouring positions (energy transition)
	RelationAdjacent
)

// Relate classifies the wheel relationship between two codes
func Relate(a, b string) Relation {
	posA, modeA, okA := Parse(a)
	posB, modeB, okB := Parse(b)
	if !okA || !okB {
		return RelationNone
	}

	switch {
	case posA == posB && modeA == modeB:
		return RelationIdentical
	case posA == posB:
		return RelationRelative
	case modeA == modeB && WheelDistance(posA, posB) == 1:
		return RelationAdjacent
	default:
		return RelationNone
	}
}
