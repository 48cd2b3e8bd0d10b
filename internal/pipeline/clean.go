package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/r-shadoff/figmine/internal/correlate"
	"github.com/r-shadoff/figmine/internal/jats"
	"github.com/r-shadoff/figmine/internal/table"
	"github.com/r-shadoff/figmine/internal/textclean"
)

// CleanFigureTable rewrites a figure table through the command cleaner
// and writes the result alongside it with a _cleaned suffix, returning
// the output path.
func CleanFigureTable(path string) (string, error) {
	if !isParquet(path) {
		return table.CleanFile(path, textclean.Clean)
	}
	figures, err := table.ReadFigures(path)
	if err != nil {
		return "", err
	}
	for i := range figures {
		figures[i] = cleanFigure(figures[i])
	}
	return writeCleanedParquet(path, figures)
}

// CleanCorrelatedTable rewrites a correlated table through the command
// and citation cleaner, returning the output path. It accepts the
// grouped variant as well.
func CleanCorrelatedTable(path string) (string, error) {
	if !isParquet(path) {
		return table.CleanFile(path, textclean.CleanCorrelated)
	}
	rows, err := table.ReadParquet[correlate.Row](path)
	if err != nil {
		return "", err
	}
	for i := range rows {
		rows[i] = cleanCorrelated(rows[i])
	}
	return writeCleanedParquet(path, rows)
}

func isParquet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".parquet")
}

func cleanFigure(f jats.FigureRecord) jats.FigureRecord {
	return jats.FigureRecord{
		RecordID:      textclean.Clean(f.RecordID),
		FigureID:      textclean.Clean(f.FigureID),
		Label:         textclean.Clean(f.Label),
		ImageRef:      textclean.Clean(f.ImageRef),
		ContextBefore: textclean.Clean(f.ContextBefore),
		ContextAfter:  textclean.Clean(f.ContextAfter),
		CaptionTitle:  textclean.Clean(f.CaptionTitle),
		CaptionText:   textclean.Clean(f.CaptionText),
	}
}

func cleanCorrelated(r correlate.Row) correlate.Row {
	return correlate.Row{
		RecordID:      textclean.CleanCorrelated(r.RecordID),
		FigureID:      textclean.CleanCorrelated(r.FigureID),
		Label:         textclean.CleanCorrelated(r.Label),
		ImageRef:      textclean.CleanCorrelated(r.ImageRef),
		ContextBefore: textclean.CleanCorrelated(r.ContextBefore),
		ContextAfter:  textclean.CleanCorrelated(r.ContextAfter),
		CaptionTitle:  textclean.CleanCorrelated(r.CaptionTitle),
		CaptionText:   textclean.CleanCorrelated(r.CaptionText),
		Sentence:      textclean.CleanCorrelated(r.Sentence),
	}
}

// writeCleanedParquet writes rows next to path with a _cleaned suffix.
func writeCleanedParquet[T any](path string, rows []T) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext) + "_cleaned"

	sink, outPath, err := table.NewSink[T](filepath.Dir(path), base, table.FormatParquet, nil, nil)
	if err != nil {
		return "", err
	}
	if err := sink.Write(rows); err != nil {
		sink.Close()
		return "", fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if err := sink.Close(); err != nil {
		return "", fmt.Errorf("failed to finish %s: %w", outPath, err)
	}
	return outPath, nil
}
