// Package table reads and writes the pipeline's tabular outputs in TSV
// and parquet form.
package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/r-shadoff/figmine/internal/correlate"
	"github.com/r-shadoff/figmine/internal/jats"
	"github.com/r-shadoff/figmine/internal/segment"
)

// Base names of the pipeline artifacts. The format decides the
// extension.
const (
	FigureBase     = "figure_data"
	SentenceBase   = "sentence_data"
	CorrelatedBase = "correlated_data"
	GroupedBase    = "correlated_data_grouped"
)

// Format selects the on-disk encoding of tabular output.
type Format string

const (
	FormatTSV     Format = "tsv"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatTSV:
		return FormatTSV, nil
	case FormatParquet:
		return FormatParquet, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected tsv or parquet)", s)
}

// FileName returns base with the format's extension.
func FileName(base string, f Format) string {
	return base + "." + string(f)
}

var (
	FigureColumns = []string{
		"PMC ID", "Figure ID", "Figure Label", "Associated Image File",
		"Sentences Before", "Sentences After", "Caption Title", "Caption Text",
	}
	SentenceColumns   = []string{"PMC ID", "Sentence"}
	CorrelatedColumns = append(append([]string{}, FigureColumns...), "Sentence")
	GroupedColumns    = append(append([]string{}, FigureColumns...), "Sentences")
)

// FigureRow flattens a figure record in column order.
func FigureRow(f jats.FigureRecord) []string {
	return []string{
		f.RecordID, f.FigureID, f.Label, f.ImageRef,
		f.ContextBefore, f.ContextAfter, f.CaptionTitle, f.CaptionText,
	}
}

// SentenceRow flattens a sentence record in column order.
func SentenceRow(s segment.SentenceRecord) []string {
	return []string{s.RecordID, s.Text}
}

// CorrelatedRow flattens a correlation row in column order.
func CorrelatedRow(r correlate.Row) []string {
	return []string{
		r.RecordID, r.FigureID, r.Label, r.ImageRef,
		r.ContextBefore, r.ContextAfter, r.CaptionTitle, r.CaptionText,
		r.Sentence,
	}
}

// Writer writes tab-separated rows under a fixed header.
type Writer struct {
	f *os.File
	w *csv.Writer
}

// NewWriter creates the file at path and writes the header row.
func NewWriter(path string, columns []string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(columns); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &Writer{f: f, w: w}, nil
}

// Write appends one row.
func (w *Writer) Write(row []string) error {
	return w.w.Write(row)
}

// Close flushes buffered rows and closes the file.
func (w *Writer) Close() error {
	w.w.Flush()
	err := w.w.Error()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadFigures loads figure records from a TSV or parquet file, detected
// by extension.
func ReadFigures(path string) ([]jats.FigureRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return ReadParquet[jats.FigureRecord](path)
	}
	rows, err := readTSV(path, len(FigureColumns))
	if err != nil {
		return nil, err
	}
	records := make([]jats.FigureRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, jats.FigureRecord{
			RecordID:      row[0],
			FigureID:      row[1],
			Label:         row[2],
			ImageRef:      row[3],
			ContextBefore: row[4],
			ContextAfter:  row[5],
			CaptionTitle:  row[6],
			CaptionText:   row[7],
		})
	}
	return records, nil
}

// ReadSentences loads sentence records from a TSV or parquet file,
// detected by extension.
func ReadSentences(path string) ([]segment.SentenceRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return ReadParquet[segment.SentenceRecord](path)
	}
	rows, err := readTSV(path, len(SentenceColumns))
	if err != nil {
		return nil, err
	}
	records := make([]segment.SentenceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, segment.SentenceRecord{RecordID: row[0], Text: row[1]})
	}
	return records, nil
}

// readTSV returns the data rows of the file, header excluded.
func readTSV(path string, wantCols int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = wantCols

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s has no header row", path)
	}
	return rows[1:], nil
}

// readTSVAny reads all rows of a TSV with any column count, header
// included.
func readTSVAny(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}
