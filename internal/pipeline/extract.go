package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/r-shadoff/figmine/internal/jats"
	"github.com/r-shadoff/figmine/internal/pmc"
	"github.com/r-shadoff/figmine/internal/segment"
	"github.com/r-shadoff/figmine/internal/table"
)

// ExtractResult reports what one extraction pass produced.
type ExtractResult struct {
	Figures      []jats.FigureRecord
	Sentences    []segment.SentenceRecord
	Processed    int
	Failed       int
	FigurePath   string
	SentencePath string
}

type recordResult struct {
	index   int
	record  string
	figures []jats.FigureRecord
	sents   []segment.SentenceRecord
	err     error
}

// Extract mines every record directory under root concurrently and
// writes the figure and sentence tables into the corpus directory.
// Output order follows the directory name order regardless of which
// worker finishes first. A record that fails is logged, reported, and
// skipped; it never aborts the batch.
func (r *Runner) Extract(ctx context.Context, root string) (*ExtractResult, error) {
	dirs, err := pmc.Records(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	var records []string
	for _, dir := range dirs {
		if pmc.IsRecord(filepath.Base(dir)) {
			records = append(records, dir)
		}
	}
	slog.Info("Extracting figure data", "records", len(records), "workers", r.cfg.Workers)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.cfg.Workers)
	resultsChan := make(chan recordResult, len(records))

	for i, dir := range records {
		wg.Add(1)
		go func(idx int, dir string) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			record := pmc.RecordID(dir)
			slog.Debug("Processing record", "record", record, "progress", fmt.Sprintf("%d/%d", idx+1, len(records)))

			figures, sents, err := r.processRecord(ctx, dir, record)
			resultsChan <- recordResult{index: idx, record: record, figures: figures, sents: sents, err: err}
		}(i, dir)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	figSink, figPath, err := table.NewSink(r.cfg.CorpusDir, table.FigureBase, r.cfg.Format, table.FigureColumns, table.FigureRow)
	if err != nil {
		return nil, err
	}
	sentSink, sentPath, err := table.NewSink(r.cfg.CorpusDir, table.SentenceBase, r.cfg.Format, table.SentenceColumns, table.SentenceRow)
	if err != nil {
		figSink.Close()
		return nil, err
	}

	out := &ExtractResult{FigurePath: figPath, SentencePath: sentPath}
	pending := make(map[int]recordResult)
	next := 0
	var writeErr error
	for arrived := range resultsChan {
		pending[arrived.index] = arrived
		for {
			res, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if res.err != nil {
				slog.Warn("Skipping record", "record", res.record, "error", res.err)
				r.rep.AddFailure(res.record, res.err.Error())
				out.Failed++
				continue
			}
			if writeErr == nil {
				if err := figSink.Write(res.figures); err != nil {
					writeErr = err
				} else if err := sentSink.Write(res.sents); err != nil {
					writeErr = err
				}
			}
			out.Figures = append(out.Figures, res.figures...)
			out.Sentences = append(out.Sentences, res.sents...)
			out.Processed++
		}
	}

	if err := figSink.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if err := sentSink.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		return nil, fmt.Errorf("failed to write extraction output: %w", writeErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.rep.RecordsProcessed = out.Processed
	r.rep.Figures = len(out.Figures)
	r.rep.Sentences = len(out.Sentences)

	slog.Info("Extraction finished",
		"processed", out.Processed, "failed", out.Failed,
		"figures", len(out.Figures), "sentences", len(out.Sentences))
	return out, nil
}

// processRecord bounds the mining of one record by the configured
// timeout.
func (r *Runner) processRecord(ctx context.Context, dir, record string) ([]jats.FigureRecord, []segment.SentenceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	done := make(chan recordResult, 1)
	go func() {
		figures, sents, err := r.mineRecord(dir, record)
		done <- recordResult{figures: figures, sents: sents, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case res := <-done:
		return res.figures, res.sents, res.err
	}
}

func (r *Runner) mineRecord(dir, record string) ([]jats.FigureRecord, []segment.SentenceRecord, error) {
	articlePath, err := pmc.FindArticleFile(dir)
	if err != nil {
		return nil, nil, err
	}
	doc, err := jats.ParseFile(articlePath)
	if err != nil {
		return nil, nil, err
	}
	figures, err := doc.ExtractFigures(record)
	if err != nil {
		return nil, nil, err
	}

	var sents []segment.SentenceRecord
	for _, text := range r.seg.FigureSentences(doc.BodyText()) {
		sents = append(sents, segment.SentenceRecord{RecordID: record, Text: text})
	}
	return figures, sents, nil
}
