package analysis

import (
	"strconv"

	"github.com/RyanBlaney/mixkey/camelot"
)

// Descriptor holds the analyzed musical descriptors of one audio file.
// Either value may be unknown: HasBPM is false when tempo estimation
// failed, and Camelot is the "UNK" sentinel when key estimation failed.
// Unknown never degrades to zero, because downstream distance math scores
// against literal values.
type Descriptor struct {
	BPM     int    `json:"bpm,omitempty"`
	HasBPM  bool   `json:"has_bpm"`
	Camelot string `json:"camelot"`
}

// UnknownDescriptor returns a descriptor with both values unknown
func UnknownDescriptor() Descriptor {
	return Descriptor{Camelot: camelot.Unknown}
}

// BPMLabel renders the BPM for display and filenames: "128" or "UNK"
func (d Descriptor) BPMLabel() string {
	if !d.HasBPM {
		return camelot.Unknown
	}
	return strconv.Itoa(d.BPM)
}
