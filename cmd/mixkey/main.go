package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/RyanBlaney/mixkey/analysis"
	"github.com/RyanBlaney/mixkey/decode"
	"github.com/RyanBlaney/mixkey/library"
	"github.com/RyanBlaney/mixkey/logging"
	"github.com/RyanBlaney/mixkey/store"
)

func main() {
	mode := flag.String("mode", "", "analyze | nextup")
	dir := flag.String("dir", ".", "library directory")
	file := flag.String("file", "", "current track for mode=nextup")
	dbPath := flag.String("db", "", "sqlite descriptor cache (optional)")
	rename := flag.Bool("rename", false, "rename analyzed files to \"BPM KEY - Title.mp3\" and write sidecars")
	workers := flag.Int("workers", 0, "concurrent analysis workers (0=auto)")
	ffmpeg := flag.String("ffmpeg", "ffmpeg", "ffmpeg binary path")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		logging.SetLevel(logging.DebugLevel)
	} else {
		logging.SetLevel(logging.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch *mode {
	case "analyze":
		err = runAnalyze(ctx, flag.Args(), *dir, *dbPath, *rename, *workers, *ffmpeg)
	case "nextup":
		err = runNextUp(ctx, *dir, *file, *dbPath, *ffmpeg)
	default:
		fmt.Fprintln(os.Stderr, "usage: mixkey -mode analyze [files...] | -mode nextup -file <track> [-dir <library>]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newAnalyzer(dbPath, ffmpeg string, workers int) (*analysis.Analyzer, *store.Store, error) {
	decCfg := decode.DefaultConfig()
	decCfg.FFmpegPath = ffmpeg
	decoder := decode.NewDecoder(decCfg)

	params := analysis.DefaultParams()
	params.Workers = workers
	opts := []analysis.Option{analysis.WithParams(params)}

	var st *store.Store
	if dbPath != "" {
		var err error
		st, err = store.Open(dbPath)
		if err != nil {
			return nil, nil, err
		}
		st.Cleanup()
		opts = append(opts, analysis.WithPersistentCache(st))
	}

	return analysis.NewAnalyzer(decoder, opts...), st, nil
}

func runAnalyze(ctx context.Context, args []string, dir, dbPath string, rename bool, workers int, ffmpeg string) error {
	paths := args
	if len(paths) == 0 {
		matches, err := filepath.Glob(filepath.Join(dir, "*.mp3"))
		if err != nil {
			return fmt.Errorf("listing %s: %w", dir, err)
		}
		paths = matches
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files to analyze")
	}

	analyzer, st, err := newAnalyzer(dbPath, ffmpeg, workers)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(paths)),
		mpb.PrependDecorators(
			decor.Name("Analyzing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	results := analyzer.AnalyzeBatch(ctx, paths, func(analysis.FileResult) {
		bar.Increment()
	})
	p.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
		finalPath := r.Path
		if rename {
			finalPath, err = renameToDescriptor(r.Path, r.Descriptor)
			if err != nil {
				fmt.Fprintf(os.Stderr, "rename failed for %s: %v\n", r.Path, err)
				finalPath = r.Path
			}
		}
		fmt.Printf("%s\t%s BPM\t%s\n", finalPath, r.Descriptor.BPMLabel(), r.Descriptor.Camelot)
	}
	return nil
}

// renameToDescriptor moves an analyzed file to its descriptor filename and
// refreshes the sidecar. Files already carrying the right name are left
// alone.
func renameToDescriptor(path string, d analysis.Descriptor) (string, error) {
	title := library.ExtractTitle(path)
	name := library.FormatDescriptorName(d.BPM, d.HasBPM, d.Camelot, title)
	finalPath := filepath.Join(filepath.Dir(path), name)

	if finalPath != path {
		if _, err := os.Stat(finalPath); err == nil {
			return "", fmt.Errorf("%s already exists", finalPath)
		}
		if err := os.Rename(path, finalPath); err != nil {
			return "", err
		}
		// Carry the sidecar along with the audio
		if _, err := os.Stat(library.MetadataPath(path)); err == nil {
			_ = os.Rename(library.MetadataPath(path), library.MetadataPath(finalPath))
		}
	}

	meta := library.ReadMetadata(finalPath)
	meta.Title = library.ExtractTitle(finalPath)
	if d.HasBPM {
		meta.BPM = d.BPM
	}
	meta.Camelot = d.Camelot
	if err := library.WriteMetadata(finalPath, meta); err != nil {
		return finalPath, err
	}
	return finalPath, nil
}

func runNextUp(ctx context.Context, dir, file, dbPath, ffmpeg string) error {
	if file == "" {
		return fmt.Errorf("-file is required for mode=nextup")
	}

	scanner := library.NewScanner(dir)
	tracks, err := scanner.Scan()
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("no tracks in library %s", dir)
	}

	cur, ok := findTrack(tracks, file)
	if !ok {
		// Not in the library yet, analyze it directly
		analyzer, st, err := newAnalyzer(dbPath, ffmpeg, 0)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}
		d, err := analyzer.Analyze(ctx, file)
		if err != nil {
			return err
		}
		cur = library.TrackDescriptor{
			Path:    file,
			Title:   library.ExtractTitle(file),
			BPM:     d.BPM,
			HasBPM:  d.HasBPM,
			Camelot: d.Camelot,
		}
	}

	idx := library.BuildIndex(tracks)
	ranked := library.RankNextUp(idx, cur)
	if len(ranked) == 0 {
		fmt.Println("no compatible tracks found")
		return nil
	}

	fmt.Printf("Next up after %q (%s BPM, %s):\n", cur.Title, cur.BPMLabel(), cur.Camelot)
	for _, r := range ranked {
		fmt.Printf("%3d%% - %s (%s BPM, %s)\n", r.Score, r.Track.Title, r.Track.BPMLabel(), r.Track.Camelot)
	}
	return nil
}

func findTrack(tracks []library.TrackDescriptor, file string) (library.TrackDescriptor, bool) {
	abs, err := filepath.Abs(file)
	if err != nil {
		abs = file
	}
	for _, t := range tracks {
		tAbs, err := filepath.Abs(t.Path)
		if err != nil {
			tAbs = t.Path
		}
		if tAbs == abs || strings.EqualFold(filepath.Base(t.Path), filepath.Base(file)) {
			return t, true
		}
	}
	return library.TrackDescriptor{}, false
}
