// Package pipeline drives the corpus workflow end to end: fetch article
// packages, unpack and sort them, extract figure and sentence tables,
// correlate them, clean the outputs, and tidy the corpus directory.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/r-shadoff/figmine/internal/archive"
	"github.com/r-shadoff/figmine/internal/fetch"
	"github.com/r-shadoff/figmine/internal/housekeep"
	"github.com/r-shadoff/figmine/internal/pmc"
	"github.com/r-shadoff/figmine/internal/report"
	"github.com/r-shadoff/figmine/internal/segment"
	"github.com/r-shadoff/figmine/internal/table"
)

// DefaultTimeout bounds the processing of a single record.
const DefaultTimeout = 2 * time.Minute

// Config controls a pipeline run. Zero values select the defaults.
type Config struct {
	CorpusDir    string
	Workers      int
	Timeout      time.Duration
	Format       table.Format
	Grouped      bool
	SkipFetch    bool
	SkipTidy     bool
	FTPHost      string
	RemoteDir    string
	RemoteSubdir string
	RemoveExts   []string
}

// Runner executes pipeline stages over one corpus directory and
// accumulates a run report.
type Runner struct {
	cfg Config
	seg *segment.Segmenter
	rep *report.Report
}

// NewRunner applies defaults to cfg and loads the sentence tokenizer.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.CorpusDir == "" {
		cfg.CorpusDir = "."
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Format == "" {
		cfg.Format = table.FormatTSV
	}
	if len(cfg.RemoveExts) == 0 {
		cfg.RemoveExts = housekeep.DefaultRemoveExts
	}

	seg, err := segment.NewSegmenter()
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence tokenizer: %w", err)
	}
	return &Runner{cfg: cfg, seg: seg, rep: report.New(cfg.CorpusDir)}, nil
}

// Report exposes the accumulated run report.
func (r *Runner) Report() *report.Report {
	return r.rep
}

// Run executes the full workflow in order. Stages whose input directory
// is absent are treated as empty, so a run can start from downloaded
// archives, an unpacked tree, or skip straight to extraction.
func (r *Runner) Run(ctx context.Context) error {
	downloadDir := filepath.Join(r.cfg.CorpusDir, pmc.DownloadDir)
	unpackDir := filepath.Join(r.cfg.CorpusDir, pmc.UnpackDir)
	sortedDir := filepath.Join(r.cfg.CorpusDir, pmc.SortedDir)

	if !r.cfg.SkipFetch {
		fetched, err := FetchShard(ctx, r.cfg.FTPHost, r.cfg.RemoteDir, r.cfg.RemoteSubdir, downloadDir)
		if err != nil {
			return err
		}
		r.rep.DownloadedArchives = fetched
	}

	unpacked, err := archive.UnpackAll(ctx, downloadDir, unpackDir)
	if err != nil {
		return fmt.Errorf("failed to unpack archives: %w", err)
	}
	r.rep.UnpackedArchives = unpacked

	viable, removed, err := pmc.Sort(unpackDir, sortedDir)
	if err != nil {
		return fmt.Errorf("failed to sort records: %w", err)
	}
	r.rep.ViableRecords = viable
	r.rep.RemovedRecords = removed
	slog.Info("Records sorted", "viable", viable, "removed", removed)

	ext, err := r.Extract(ctx, sortedDir)
	if err != nil {
		return err
	}

	corr, err := r.Correlate(ext.Figures, ext.Sentences)
	if err != nil {
		return err
	}

	if _, err := CleanFigureTable(ext.FigurePath); err != nil {
		return fmt.Errorf("failed to clean figure table: %w", err)
	}
	if _, err := CleanCorrelatedTable(corr.Path); err != nil {
		return fmt.Errorf("failed to clean correlated table: %w", err)
	}
	if corr.GroupedPath != "" {
		if _, err := CleanCorrelatedTable(corr.GroupedPath); err != nil {
			return fmt.Errorf("failed to clean grouped table: %w", err)
		}
	}

	if !r.cfg.SkipTidy {
		if err := r.Tidy(); err != nil {
			return err
		}
	}

	path, err := r.rep.Save(r.cfg.CorpusDir)
	if err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}
	slog.Info("Run complete", "report", path)
	return nil
}

// FetchShard connects to host (empty selects the default service) and
// downloads one shard of article archives into destDir, returning the
// number fetched.
func FetchShard(ctx context.Context, host, dir, subdir, destDir string) (int, error) {
	if host == "" {
		host = fetch.HostFromEnv()
	}
	client, err := fetch.Dial(ctx, host)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	return client.FetchShard(ctx, dir, subdir, destDir)
}

// TidyResult reports what one tidy pass changed.
type TidyResult struct {
	Moved      int
	Removed    int
	Extensions []string
}

// Tidy moves sorted records up to the corpus root, prunes unwanted file
// types, collects the surviving extensions, and removes the working
// directories.
func Tidy(root string, removeExts []string) (*TidyResult, error) {
	moved, err := housekeep.Shuttle(root)
	if err != nil {
		return nil, fmt.Errorf("failed to move sorted records: %w", err)
	}

	removed, err := housekeep.RemoveByExtension(root, removeExts)
	if err != nil {
		return nil, fmt.Errorf("failed to prune files: %w", err)
	}

	exts, err := housekeep.UniqueExtensions(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan extensions: %w", err)
	}

	if err := housekeep.RemoveTrace(root); err != nil {
		return nil, fmt.Errorf("failed to remove working directories: %w", err)
	}

	slog.Info("Corpus tidied", "moved", moved, "removed_files", removed, "extensions", exts)
	return &TidyResult{Moved: moved, Removed: removed, Extensions: exts}, nil
}

// Tidy runs the tidy pass over the corpus directory and records the
// outcome in the run report.
func (r *Runner) Tidy() error {
	res, err := Tidy(r.cfg.CorpusDir, r.cfg.RemoveExts)
	if err != nil {
		return err
	}
	r.rep.RemovedFiles = res.Removed
	r.rep.SurvivingExtensions = res.Extensions
	return nil
}
