// Package analysis orchestrates the audio analysis pipeline: decode, pick a
// representative segment, estimate tempo and key, and map the key onto the
// Camelot wheel. Results are memoized in-process and optionally persisted.
package analysis

import (
	"context"
	"math"
	"os"
	"runtime"
	"sync"

	"github.com/RyanBlaney/mixkey/algorithms/chroma"
	"github.com/RyanBlaney/mixkey/algorithms/temporal"
	"github.com/RyanBlaney/mixkey/algorithms/tonal"
	"github.com/RyanBlaney/mixkey/camelot"
	"github.com/RyanBlaney/mixkey/decode"
	"github.com/RyanBlaney/mixkey/logging"
)

// AudioDecoder decodes an audio file into mono PCM. *decode.Decoder is the
// production implementation.
type AudioDecoder interface {
	DecodeFile(ctx context.Context, filename string) (*decode.AudioData, error)
}

// PersistentCache survives process restarts. Entries are keyed by path and
// file modification time, so replacing a file in place invalidates its
// stored descriptor. *store.Store is the production implementation.
type PersistentCache interface {
	Load(path string, modTime int64) (Descriptor, bool)
	Save(path string, modTime int64, d Descriptor) error
	Remove(path string) error
}

// Params contains analyzer parameters
type Params struct {
	SegmentParams temporal.SegmentParams `json:"segment_params"`
	TempoParams   temporal.TempoParams   `json:"tempo_params"`
	ChromaHopSize int                    `json:"chroma_hop_size"`
	Workers       int                    `json:"workers"` // Batch concurrency, 0 = auto
}

// DefaultParams returns analyzer parameters for full-track descriptor
// extraction: a 30 second segment and a chroma hop of 2048 samples
func DefaultParams() Params {
	return Params{
		SegmentParams: temporal.DefaultSegmentParams(),
		TempoParams:   temporal.DefaultTempoParams(),
		ChromaHopSize: 2048,
	}
}

// Analyzer runs the analysis pipeline. Analysis is CPU-bound and safe to run
// on several files concurrently; the shared cache carries the only locking.
type Analyzer struct {
	params  Params
	decoder AudioDecoder
	cache   *Cache
	persist PersistentCache // may be nil

	segments *temporal.SegmentSelector
	tempo    *temporal.TempoEstimator
	keys     *tonal.KeyEstimator
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithPersistentCache attaches a persistent descriptor cache consulted on
// in-memory misses and written through after analysis
func WithPersistentCache(p PersistentCache) Option {
	return func(a *Analyzer) { a.persist = p }
}

// WithParams overrides the default analyzer parameters
func WithParams(params Params) Option {
	return func(a *Analyzer) {
		a.params = params
		a.segments = temporal.NewSegmentSelectorWithParams(params.SegmentParams)
		a.tempo = temporal.NewTempoEstimatorWithParams(params.TempoParams)
	}
}

// NewAnalyzer creates an analyzer using the given decoder
func NewAnalyzer(decoder AudioDecoder, opts ...Option) *Analyzer {
	a := &Analyzer{
		params:   DefaultParams(),
		decoder:  decoder,
		cache:    NewCache(),
		segments: temporal.NewSegmentSelector(),
		tempo:    temporal.NewTempoEstimator(),
		keys:     tonal.NewKeyEstimator(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cache exposes the in-memory analysis cache
func (a *Analyzer) Cache() *Cache {
	return a.cache
}

// Analyze produces the BPM and Camelot descriptor for one file. Results are
// cached by path: a second call for the same file returns the memoized
// descriptor without re-running analysis.
//
// Decode failures and degenerate signals are recovered as unknown
// descriptors, not errors, so a batch with one bad file still completes.
// The only error returned is context cancellation.
func (a *Analyzer) Analyze(ctx context.Context, path string) (Descriptor, error) {
	if d, ok := a.cache.Get(path); ok {
		return d, nil
	}

	modTime := fileModTime(path)
	if a.persist != nil {
		if d, ok := a.persist.Load(path, modTime); ok {
			a.cache.Put(path, d)
			return d, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return Descriptor{}, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "analyzer",
		"path":      path,
	})

	audio, err := a.decoder.DecodeFile(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return Descriptor{}, ctx.Err()
		}
		// Unreadable audio is a per-file condition, not a pipeline failure
		logger.Warn("Decode failed, marking descriptors unknown", logging.Fields{"error": err.Error()})
		d := UnknownDescriptor()
		a.cache.Put(path, d)
		return d, nil
	}

	segment := a.segments.Select(audio.PCM, audio.SampleRate)

	d := Descriptor{Camelot: camelot.Unknown}

	if estimate := a.tempo.Estimate(segment, audio.SampleRate); estimate.Valid {
		d.BPM = int(math.Round(estimate.BPM))
		d.HasBPM = true
	}

	if err := ctx.Err(); err != nil {
		return Descriptor{}, err
	}

	// The CQT kernel depends on the sample rate, so build it per file;
	// kernel setup is cheap next to decoding
	cqt := chroma.NewChromaCQTDefault(audio.SampleRate)
	chromagram, err := cqt.Compute(segment, a.params.ChromaHopSize)
	if err != nil {
		logger.Warn("Chromagram extraction failed, key unknown", logging.Fields{"error": err.Error()})
	} else {
		d.Camelot = camelot.FromKey(a.keys.EstimateFromChromagram(chromagram))
	}

	a.cache.Put(path, d)
	if a.persist != nil {
		if err := a.persist.Save(path, modTime, d); err != nil {
			logger.Warn("Persisting descriptor failed", logging.Fields{"error": err.Error()})
		}
	}

	logger.Info("Track analyzed", logging.Fields{
		"bpm":     d.BPMLabel(),
		"camelot": d.Camelot,
	})

	return d, nil
}

// Invalidate drops cached descriptors for a path, forcing recomputation on
// the next Analyze call
func (a *Analyzer) Invalidate(path string) {
	a.cache.Invalidate(path)
	if a.persist != nil {
		if err := a.persist.Remove(path); err != nil {
			logging.Warn("Removing persisted descriptor failed", logging.Fields{
				"path":  path,
				"error": err.Error(),
			})
		}
	}
}

// FileResult pairs a path with its analysis outcome
type FileResult struct {
	Path       string
	Descriptor Descriptor
	Err        error // Context cancellation only
}

// AnalyzeBatch analyzes files concurrently on a bounded worker pool, one
// worker per in-flight file. onResult, when non-nil, is invoked serially as
// results complete. The returned slice holds every result in completion
// order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, paths []string, onResult func(FileResult)) []FileResult {
	workers := a.params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 2 {
			workers = 2
		}
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string, len(paths))
	results := make(chan FileResult, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				d, err := a.Analyze(ctx, path)
				results <- FileResult{Path: path, Descriptor: d, Err: err}
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]FileResult, 0, len(paths))
	for r := range results {
		if onResult != nil {
			onResult(r)
		}
		collected = append(collected, r)
	}

	return collected
}

// fileModTime returns the file's modification time in Unix seconds, or 0
// when the file cannot be stat'd
func fileModTime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}
