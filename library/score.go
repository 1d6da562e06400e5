package library

import (
	"math"

	"github.com/RyanBlaney/mixkey/camelot"
)

// Mix compatibility blends tempo and harmonic proximity. Weights favor
// tempo: a beatmatchable track with a rough key clash mixes better than a
// perfect key match thirty BPM away.
const (
	tempoWeight    = 0.6
	harmonicWeight = 0.4
)

// TempoTierScore rates how beatmatchable two tempos are, 0 to 100. Tiers,
// checked in order: within 2 BPM, within 5 BPM, half or double time within
// 3 BPM, within 8 BPM. Anything further scores zero.
func TempoTierScore(a, b int) int {
	if a <= 0 || b <= 0 {
		return 0
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 2:
		return 100
	case diff <= 5:
		return 85
	case absInt(a-b*2) <= 3 || absInt(a*2-b) <= 3:
		return 70
	case diff <= 8:
		return 50
	default:
		return 0
	}
}

// HarmonicScore rates Camelot wheel proximity, 0 to 100. Identical keys
// score 100, the relative major/minor 85, same-mode neighbors 90, then 65
// and 45 at wheel distances two and three. Unknown keys score zero.
func HarmonicScore(a, b string) int {
	posA, modeA, okA := camelot.Parse(a)
	posB, modeB, okB := camelot.Parse(b)
	if !okA || !okB {
		return 0
	}
	if posA == posB {
		if modeA == modeB {
			return 100
		}
		return 85
	}
	if modeA != modeB {
		return 0
	}
	switch camelot.WheelDistance(posA, posB) {
	case 1:
		return 90
	case 2:
		return 65
	case 3:
		return 45
	default:
		return 0
	}
}

// MixScore combines tempo and harmonic compatibility into a single 0 to 100
// rating. A track missing a descriptor contributes zero on that axis rather
// than disqualifying the pair.
func MixScore(cur, cand TrackDescriptor) int {
	tempo := 0
	if cur.HasBPM && cand.HasBPM {
		tempo = TempoTierScore(cur.BPM, cand.BPM)
	}
	harmonic := HarmonicScore(cur.Camelot, cand.Camelot)
	return int(math.Round(tempoWeight*float64(tempo) + harmonicWeight*float64(harmonic)))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
