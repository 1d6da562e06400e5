package library

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankNextUpOrdering(t *testing.T) {
	cur := track("cur.mp3", 128, "8A")
	tracks := []TrackDescriptor{
		track("perfect.mp3", 128, "8A"),  // 100
		track("energy.mp3", 128, "9A"),   // 96
		track("relative.mp3", 128, "8B"), // 94
		track("tempo-only.mp3", 128, "UNK"),
		track("clash.mp3", 170, "2B"), // 0, excluded
	}
	idx := BuildIndex(tracks)

	ranked := RankNextUp(idx, cur)
	require.Len(t, ranked, 4)
	assert.Equal(t, "perfect.mp3", ranked[0].Track.Path)
	assert.Equal(t, 100, ranked[0].Score)
	assert.Equal(t, "energy.mp3", ranked[1].Track.Path)
	assert.Equal(t, "relative.mp3", ranked[2].Track.Path)
	assert.Equal(t, "tempo-only.mp3", ranked[3].Track.Path)
}

func TestRankNextUpExcludesSelf(t *testing.T) {
	cur := track("cur.mp3", 128, "8A")
	idx := BuildIndex([]TrackDescriptor{cur, track("other.mp3", 128, "8A")})

	ranked := RankNextUp(idx, cur)
	require.Len(t, ranked, 1)
	assert.Equal(t, "other.mp3", ranked[0].Track.Path)
}

func TestRankNextUpExcludesZeroScores(t *testing.T) {
	cur := track("cur.mp3", 128, "8A")
	unknown := TrackDescriptor{Path: "mystery.mp3", Title: "mystery", Camelot: "UNK"}
	idx := BuildIndex([]TrackDescriptor{unknown})

	ranked := RankNextUp(idx, cur)
	assert.Empty(t, ranked, "zero-score candidates are dropped")
}

func TestRankNextUpTieBreaksOnTitle(t *testing.T) {
	cur := track("cur.mp3", 128, "8A")
	tracks := []TrackDescriptor{
		{Path: "b.mp3", Title: "Bravo", BPM: 128, HasBPM: true, Camelot: "8A"},
		{Path: "a.mp3", Title: "Alpha", BPM: 128, HasBPM: true, Camelot: "8A"},
		{Path: "c.mp3", Title: "Charlie", BPM: 128, HasBPM: true, Camelot: "8A"},
	}
	idx := BuildIndex(tracks)

	ranked := RankNextUp(idx, cur)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Alpha", ranked[0].Track.Title)
	assert.Equal(t, "Bravo", ranked[1].Track.Title)
	assert.Equal(t, "Charlie", ranked[2].Track.Title)
}

func TestRankNextUpCapsAtTen(t *testing.T) {
	cur := track("cur.mp3", 128, "8A")
	tracks := make([]TrackDescriptor, 0, 30)
	for i := 0; i < 30; i++ {
		tracks = append(tracks, track(fmt.Sprintf("%02d.mp3", i), 128, "8A"))
	}
	idx := BuildIndex(tracks)

	ranked := RankNextUp(idx, cur)
	assert.Len(t, ranked, 10)
}
