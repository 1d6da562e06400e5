package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptorName(t *testing.T) {
	tests := []struct {
		name   string
		bpm    int
		hasBPM bool
		code   string
		ok     bool
	}{
		{"128 8A - Night Drive.mp3", 128, true, "8A", true},
		{"95 12B - Slow Burner.mp3", 95, true, "12B", true},
		{"UNK UNK - Mystery Track.mp3", 0, false, "UNK", false},
		{"Night Drive.mp3", 0, false, "UNK", false},
		{"128 - Missing Key.mp3", 0, false, "UNK", false},
		{"abc 8A - Bad Tempo.mp3", 0, false, "UNK", false},
		{"128 8C - Bad Mode.mp3", 0, false, "UNK", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bpm, hasBPM, code, ok := ParseDescriptorName(tc.name)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.bpm, bpm)
			assert.Equal(t, tc.hasBPM, hasBPM)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Night Drive", ExtractTitle("128 8A - Night Drive.mp3"))
	assert.Equal(t, "Night Drive", ExtractTitle("/music/128 8A - Night Drive.mp3"))
	assert.Equal(t, "Night Drive", ExtractTitle("Night Drive.mp3"))
	assert.Equal(t, "A - B", ExtractTitle("128 8A - A - B.mp3"), "only the first separator splits")
}

func TestFormatDescriptorName(t *testing.T) {
	assert.Equal(t, "128 8A - Night Drive.mp3", FormatDescriptorName(128, true, "8A", "Night Drive"))
	assert.Equal(t, "UNK UNK - Mystery.mp3", FormatDescriptorName(0, false, "UNK", "Mystery"))
	assert.Equal(t, "UNK UNK - Mystery.mp3", FormatDescriptorName(0, false, "", "Mystery"))
	assert.Equal(t, "128 8A - Whats Up.mp3", FormatDescriptorName(128, true, "8A", "What's Up?"),
		"title is sanitized")
}

func TestFormatParseRoundTrip(t *testing.T) {
	name := FormatDescriptorName(140, true, "11B", "Peak Time")
	bpm, hasBPM, code, ok := ParseDescriptorName(name)
	require.True(t, ok)
	assert.Equal(t, 140, bpm)
	assert.True(t, hasBPM)
	assert.Equal(t, "11B", code)
	assert.Equal(t, "Peak Time", ExtractTitle(name))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Track feat MC 2", Sanitize("Track (feat. MC) #2"))
	assert.Equal(t, "under_score-dash", Sanitize("under_score-dash"))
}

func TestMetadataSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "128 8A - Night Drive.mp3")

	meta := Metadata{Title: "Night Drive", Artist: "Test Artist", BPM: 128, Camelot: "8A"}
	require.NoError(t, WriteMetadata(audioPath, meta))

	assert.Equal(t, filepath.Join(dir, "128 8A - Night Drive.json"), MetadataPath(audioPath))
	assert.Equal(t, meta, ReadMetadata(audioPath))
}

func TestReadMetadataMissingOrMalformed(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, Metadata{}, ReadMetadata(filepath.Join(dir, "missing.mp3")))

	audioPath := filepath.Join(dir, "bad.mp3")
	require.NoError(t, os.WriteFile(MetadataPath(audioPath), []byte("{not json"), 0o644))
	assert.Equal(t, Metadata{}, ReadMetadata(audioPath))
}

func writeTrackFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
	return path
}

func TestScanSortsByBPM(t *testing.T) {
	dir := t.TempDir()
	writeTrackFile(t, dir, "140 11B - Fast.mp3")
	writeTrackFile(t, dir, "95 4A - Slow.mp3")
	writeTrackFile(t, dir, "Unparsed Name.mp3")
	writeTrackFile(t, dir, "not-audio.txt")

	scanner := NewScanner(dir)
	tracks, err := scanner.Scan()
	require.NoError(t, err)
	require.Len(t, tracks, 3, "only *.mp3 files are scanned")

	assert.Equal(t, "Slow", tracks[0].Title)
	assert.Equal(t, 95, tracks[0].BPM)
	assert.Equal(t, "Fast", tracks[1].Title)
	assert.Equal(t, "Unparsed Name", tracks[2].Title, "unknown tempo sorts last")
	assert.False(t, tracks[2].HasBPM)
}

func TestScanReadsArtistFromSidecar(t *testing.T) {
	dir := t.TempDir()
	path := writeTrackFile(t, dir, "128 8A - Night Drive.mp3")
	require.NoError(t, WriteMetadata(path, Metadata{Title: "Night Drive", Artist: "Test Artist"}))

	tracks, err := NewScanner(dir).Scan()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Test Artist", tracks[0].Artist)
}

func TestScanCachesUntilInvalidated(t *testing.T) {
	dir := t.TempDir()
	writeTrackFile(t, dir, "128 8A - First.mp3")

	scanner := NewScannerWithParams(ScannerParams{Dir: dir, CacheTTL: time.Hour})
	tracks, err := scanner.Scan()
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	writeTrackFile(t, dir, "130 9A - Second.mp3")

	tracks, err = scanner.Scan()
	require.NoError(t, err)
	assert.Len(t, tracks, 1, "cached listing served inside the TTL")

	scanner.Invalidate()
	tracks, err = scanner.Scan()
	require.NoError(t, err)
	assert.Len(t, tracks, 2, "invalidation forces a fresh listing")
}
