package library

import "math"

const (
	// candidateFloor widens the bucket sweep when the primary windows turn
	// up fewer unique candidates than this
	candidateFloor = 50

	// fallbackLimit caps the candidate list when the current track has no
	// usable tempo
	fallbackLimit = 200
)

// BPMIndex buckets a library snapshot by integer BPM for candidate
// retrieval. The index is immutable once built; rebuild it after the
// library changes.
type BPMIndex struct {
	buckets map[int][]TrackDescriptor
	tracks  []TrackDescriptor
}

// BuildIndex indexes tracks by BPM, preserving the input order inside each
// bucket and in the fallback listing. Tracks without a tempo stay out of the
// buckets but remain reachable through the fallback.
func BuildIndex(tracks []TrackDescriptor) *BPMIndex {
	idx := &BPMIndex{
		buckets: make(map[int][]TrackDescriptor),
		tracks:  tracks,
	}
	for _, t := range tracks {
		if t.HasBPM {
			idx.buckets[t.BPM] = append(idx.buckets[t.BPM], t)
		}
	}
	return idx
}

// Len returns the number of indexed tracks, fallback listing included
func (idx *BPMIndex) Len() int {
	return len(idx.tracks)
}

// Candidates gathers mix candidates around a current tempo: buckets within
// 5 BPM, buckets within 3 BPM of the half and double tempo, and a widened
// sweep to 8 BPM when fewer than 50 unique tracks were found. Each track
// appears at most once. A current track without tempo, or an empty index,
// falls back to the first 200 tracks in library order.
func (idx *BPMIndex) Candidates(cur TrackDescriptor) []TrackDescriptor {
	if !cur.HasBPM || len(idx.buckets) == 0 {
		if len(idx.tracks) > fallbackLimit {
			return idx.tracks[:fallbackLimit]
		}
		return idx.tracks
	}

	seen := make(map[string]bool)
	var candidates []TrackDescriptor
	addBucket := func(bpm int) {
		for _, t := range idx.buckets[bpm] {
			if !seen[t.Path] {
				seen[t.Path] = true
				candidates = append(candidates, t)
			}
		}
	}

	for delta := -5; delta <= 5; delta++ {
		addBucket(cur.BPM + delta)
	}

	half := int(math.Round(float64(cur.BPM) / 2))
	double := cur.BPM * 2
	for _, base := range []int{half, double} {
		if base <= 0 {
			continue
		}
		for delta := -3; delta <= 3; delta++ {
			addBucket(base + delta)
		}
	}

	if len(candidates) < candidateFloor {
		for delta := -8; delta <= 8; delta++ {
			addBucket(cur.BPM + delta)
		}
	}

	return candidates
}
