package library

import "sort"

// nextUpLimit caps the ranked list at the ten best candidates
const nextUpLimit = 10

// RankedTrack is a candidate with its mix compatibility score
type RankedTrack struct {
	Score int             `json:"score"`
	Track TrackDescriptor `json:"track"`
}

// RankNextUp scores the index's candidates against the current track and
// returns up to ten, best first. The current track itself and candidates
// scoring zero are excluded; ties break on title ascending.
func RankNextUp(idx *BPMIndex, cur TrackDescriptor) []RankedTrack {
	candidates := idx.Candidates(cur)

	ranked := make([]RankedTrack, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Path == cur.Path {
			continue
		}
		score := MixScore(cur, cand)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, RankedTrack{Score: score, Track: cand})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Track.Title < ranked[j].Track.Title
	})

	if len(ranked) > nextUpLimit {
		ranked = ranked[:nextUpLimit]
	}
	return ranked
}
