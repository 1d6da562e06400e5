// Package library manages a directory of analyzed tracks: scanning
// descriptors out of filenames and sidecars, indexing by tempo, and ranking
// harmonically and rhythmically compatible next tracks.
package library

import "strconv"

// TrackDescriptor is one library track with its mix-relevant descriptors.
// BPM is meaningful only when HasBPM is true; Camelot holds camelot.Unknown
// when the key could not be determined.
type TrackDescriptor struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Artist  string `json:"artist,omitempty"`
	BPM     int    `json:"bpm"`
	HasBPM  bool   `json:"has_bpm"`
	Camelot string `json:"camelot"`
}

// BPMLabel renders the tempo for display, "UNK" when unknown
func (t TrackDescriptor) BPMLabel() string {
	if !t.HasBPM {
		return "UNK"
	}
	return strconv.Itoa(t.BPM)
}
