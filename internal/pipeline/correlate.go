package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/r-shadoff/figmine/internal/correlate"
	"github.com/r-shadoff/figmine/internal/jats"
	"github.com/r-shadoff/figmine/internal/segment"
	"github.com/r-shadoff/figmine/internal/table"
)

// CorrelateResult reports what one correlation pass produced.
type CorrelateResult struct {
	Rows        int
	Path        string
	GroupedPath string
}

// Correlate pairs figures with the sentences that reference them and
// writes the correlated table into the corpus directory. With Grouped
// set it also writes a table with one row per figure and the matched
// sentences joined.
func (r *Runner) Correlate(figures []jats.FigureRecord, sents []segment.SentenceRecord) (*CorrelateResult, error) {
	rows := correlate.Correlate(figures, sents)

	path, err := r.writeRows(table.CorrelatedBase, table.CorrelatedColumns, rows)
	if err != nil {
		return nil, err
	}
	out := &CorrelateResult{Rows: len(rows), Path: path}

	if r.cfg.Grouped {
		gpath, err := r.writeRows(table.GroupedBase, table.GroupedColumns, correlate.Group(rows))
		if err != nil {
			return nil, err
		}
		out.GroupedPath = gpath
	}

	r.rep.CorrelatedRows = len(rows)
	slog.Info("Correlation finished", "rows", len(rows), "path", path)
	return out, nil
}

func (r *Runner) writeRows(base string, columns []string, rows []correlate.Row) (string, error) {
	sink, path, err := table.NewSink(r.cfg.CorpusDir, base, r.cfg.Format, columns, table.CorrelatedRow)
	if err != nil {
		return "", err
	}
	if err := sink.Write(rows); err != nil {
		sink.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := sink.Close(); err != nil {
		return "", fmt.Errorf("failed to finish %s: %w", path, err)
	}
	return path, nil
}
