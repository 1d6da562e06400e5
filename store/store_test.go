package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/mixkey/analysis"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "descriptors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSaveLoad(t *testing.T) {
	s := openTestStore(t)

	d := analysis.Descriptor{BPM: 128, HasBPM: true, Camelot: "8A"}
	require.NoError(t, s.Save("/music/track.mp3", 1000, d))

	got, ok := s.Load("/music/track.mp3", 1000)
	require.True(t, ok)
	assert.Equal(t, d, got)
}

func TestStoreLoadMissesOnModTimeChange(t *testing.T) {
	s := openTestStore(t)

	d := analysis.Descriptor{BPM: 128, HasBPM: true, Camelot: "8A"}
	require.NoError(t, s.Save("/music/track.mp3", 1000, d))

	_, ok := s.Load("/music/track.mp3", 2000)
	assert.False(t, ok, "a replaced file must not serve the stale descriptor")
}

func TestStoreSaveReplaces(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save("/music/track.mp3", 1000, analysis.Descriptor{BPM: 100, HasBPM: true, Camelot: "5A"}))
	updated := analysis.Descriptor{BPM: 128, HasBPM: true, Camelot: "8A"}
	require.NoError(t, s.Save("/music/track.mp3", 2000, updated))

	got, ok := s.Load("/music/track.mp3", 2000)
	require.True(t, ok)
	assert.Equal(t, updated, got)
}

func TestStoreUnknownBPM(t *testing.T) {
	s := openTestStore(t)

	d := analysis.UnknownDescriptor()
	require.NoError(t, s.Save("/music/mystery.mp3", 1000, d))

	got, ok := s.Load("/music/mystery.mp3", 1000)
	require.True(t, ok)
	assert.False(t, got.HasBPM)
	assert.Equal(t, d, got)
}

func TestStoreRemove(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save("/music/track.mp3", 1000, analysis.Descriptor{BPM: 128, HasBPM: true, Camelot: "8A"}))
	require.NoError(t, s.Remove("/music/track.mp3"))

	_, ok := s.Load("/music/track.mp3", 1000)
	assert.False(t, ok)

	assert.NoError(t, s.Remove("/music/track.mp3"), "removing a missing row is not an error")
}

func TestStoreCleanup(t *testing.T) {
	s := openTestStore(t)

	dir := t.TempDir()
	existing := filepath.Join(dir, "keep.mp3")
	require.NoError(t, os.WriteFile(existing, []byte(""), 0o644))

	d := analysis.Descriptor{BPM: 128, HasBPM: true, Camelot: "8A"}
	require.NoError(t, s.Save(existing, 1000, d))
	require.NoError(t, s.Save(filepath.Join(dir, "gone.mp3"), 1000, d))

	s.Cleanup()

	_, ok := s.Load(existing, 1000)
	assert.True(t, ok)
	_, ok = s.Load(filepath.Join(dir, "gone.mp3"), 1000)
	assert.False(t, ok)
}
