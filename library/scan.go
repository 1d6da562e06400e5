package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RyanBlaney/mixkey/camelot"
	"github.com/RyanBlaney/mixkey/logging"
)

// Analyzed tracks carry their descriptors in the filename so a plain
// directory listing is enough to rebuild the library:
//
//	"128 8A - Some Title.mp3"
//	"UNK UNK - Unanalyzed Title.mp3"

var sanitizePattern = regexp.MustCompile(`[^a-zA-Z0-9 _-]`)

// Sanitize strips characters that are unsafe in descriptor filenames
func Sanitize(text string) string {
	return sanitizePattern.ReplaceAllString(text, "")
}

// ParseDescriptorName extracts BPM and Camelot code from a descriptor
// filename. ok is false when the name does not follow the convention; a
// parsed name may still carry an unknown key.
func ParseDescriptorName(filename string) (bpm int, hasBPM bool, code string, ok bool) {
	base := filepath.Base(filename)
	head, _, found := strings.Cut(base, " - ")
	if !found {
		return 0, false, camelot.Unknown, false
	}
	parts := strings.Fields(head)
	if len(parts) < 2 {
		return 0, false, camelot.Unknown, false
	}
	bpm, err := strconv.Atoi(parts[0])
	if err != nil || bpm < 0 {
		return 0, false, camelot.Unknown, false
	}
	code = parts[1]
	if _, _, valid := camelot.Parse(code); !valid {
		return 0, false, camelot.Unknown, false
	}
	return bpm, true, code, true
}

// ExtractTitle returns the display title of a descriptor filename: the text
// after the first " - " separator with the extension dropped. Names without
// the separator fall back to the full stem.
func ExtractTitle(filename string) string {
	base := filepath.Base(filename)
	if _, tail, found := strings.Cut(base, " - "); found {
		base = tail
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FormatDescriptorName composes a descriptor filename from analysis results
// and a raw title. The title is sanitized; unknown descriptors render as
// "UNK".
func FormatDescriptorName(bpm int, hasBPM bool, code, title string) string {
	bpmTxt := "UNK"
	if hasBPM {
		bpmTxt = strconv.Itoa(bpm)
	}
	if code == "" {
		code = camelot.Unknown
	}
	return fmt.Sprintf("%s %s - %s.mp3", bpmTxt, code, Sanitize(title))
}

// Metadata is the JSON sidecar written next to each audio file
type Metadata struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	VideoID string `json:"video_id,omitempty"`
	BPM     int    `json:"bpm,omitempty"`
	Camelot string `json:"camelot,omitempty"`
}

// MetadataPath returns the sidecar path for an audio file
func MetadataPath(audioPath string) string {
	ext := filepath.Ext(audioPath)
	return strings.TrimSuffix(audioPath, ext) + ".json"
}

// ReadMetadata loads the sidecar for an audio file. A missing or malformed
// sidecar yields empty metadata, not an error.
func ReadMetadata(audioPath string) Metadata {
	var meta Metadata
	data, err := os.ReadFile(MetadataPath(audioPath))
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		logging.Debug("Ignoring malformed metadata sidecar", logging.Fields{
			"path":  audioPath,
			"error": err.Error(),
		})
		return Metadata{}
	}
	return meta
}

// WriteMetadata writes the sidecar for an audio file
func WriteMetadata(audioPath string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(MetadataPath(audioPath), data, 0o644); err != nil {
		return fmt.Errorf("writing metadata sidecar: %w", err)
	}
	return nil
}

// ScannerParams contains library scanner parameters
type ScannerParams struct {
	Dir      string        `json:"dir"`
	Pattern  string        `json:"pattern"` // Filename glob, default "*.mp3"
	CacheTTL time.Duration `json:"cache_ttl"`
}

// DefaultScannerParams returns scanner parameters for a downloads directory
func DefaultScannerParams(dir string) ScannerParams {
	return ScannerParams{
		Dir:      dir,
		Pattern:  "*.mp3",
		CacheTTL: 5 * time.Second,
	}
}

// Scanner lists a library directory and parses each file's descriptors.
// Listings are cached briefly so repeated ranking calls do not hammer the
// filesystem; Invalidate forces the next Scan to reread the directory.
type Scanner struct {
	params ScannerParams

	mu       sync.Mutex
	cached   []TrackDescriptor
	cachedAt time.Time
}

// NewScanner creates a scanner over dir with default parameters
func NewScanner(dir string) *Scanner {
	return NewScannerWithParams(DefaultScannerParams(dir))
}

// NewScannerWithParams creates a scanner with custom parameters
func NewScannerWithParams(params ScannerParams) *Scanner {
	if params.Pattern == "" {
		params.Pattern = "*.mp3"
	}
	return &Scanner{params: params}
}

// Scan returns the library's tracks sorted by BPM ascending, tracks with
// unknown tempo last. The result is a fresh listing or a cached one no older
// than the scanner's TTL; callers must not mutate it.
func (s *Scanner) Scan() ([]TrackDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.cachedAt) < s.params.CacheTTL {
		return s.cached, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.params.Dir, s.params.Pattern))
	if err != nil {
		return nil, fmt.Errorf("listing library %s: %w", s.params.Dir, err)
	}

	tracks := make([]TrackDescriptor, 0, len(matches))
	for _, path := range matches {
		bpm, hasBPM, code, _ := ParseDescriptorName(path)
		meta := ReadMetadata(path)
		tracks = append(tracks, TrackDescriptor{
			Path:    path,
			Title:   ExtractTitle(path),
			Artist:  meta.Artist,
			BPM:     bpm,
			HasBPM:  hasBPM,
			Camelot: code,
		})
	}

	sort.SliceStable(tracks, func(i, j int) bool {
		return bpmSortKey(tracks[i]) < bpmSortKey(tracks[j])
	})

	s.cached = tracks
	s.cachedAt = time.Now()

	logging.Debug("Library scanned", logging.Fields{
		"dir":    s.params.Dir,
		"tracks": len(tracks),
	})

	return tracks, nil
}

// Invalidate drops the cached listing
func (s *Scanner) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func bpmSortKey(t TrackDescriptor) int {
	if !t.HasBPM {
		return 999
	}
	return t.BPM
}
