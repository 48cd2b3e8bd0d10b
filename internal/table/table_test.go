package table

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/r-shadoff/figmine/internal/correlate"
	"github.com/r-shadoff/figmine/internal/jats"
	"github.com/r-shadoff/figmine/internal/segment"
	"github.com/r-shadoff/figmine/internal/textclean"
)

var testFigures = []jats.FigureRecord{
	{
		RecordID:      "PMC100",
		FigureID:      "F1",
		Label:         "Figure 1",
		ImageRef:      "fig1.png",
		ContextBefore: "Before text.",
		ContextAfter:  "After text.",
		CaptionTitle:  "A title.",
		CaptionText:   "A caption.",
	},
	{
		RecordID:      "PMC100",
		FigureID:      "F2",
		Label:         jats.NoFigureLabel,
		ImageRef:      jats.ImageNotFound,
		ContextBefore: jats.NoXrefFound,
		ContextAfter:  jats.NoXrefFound,
		CaptionTitle:  jats.NoCaptionTitle,
		CaptionText:   jats.NoCaptionText,
	},
}

func TestFigureSinkRoundTripTSV(t *testing.T) {
	dir := t.TempDir()

	sink, path, err := NewSink(dir, FigureBase, FormatTSV, FigureColumns, FigureRow)
	if err != nil {
		t.Fatalf("NewSink failed: %v", err)
	}
	if err := sink.Write(testFigures); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if filepath.Base(path) != "figure_data.tsv" {
		t.Errorf("Expected figure_data.tsv, got %s", path)
	}

	got, err := ReadFigures(path)
	if err != nil {
		t.Fatalf("ReadFigures failed: %v", err)
	}
	if !reflect.DeepEqual(got, testFigures) {
		t.Errorf("Round trip mismatch: got %+v, want %+v", got, testFigures)
	}
}

func TestFigureSinkRoundTripParquet(t *testing.T) {
	dir := t.TempDir()

	sink, path, err := NewSink(dir, FigureBase, FormatParquet, FigureColumns, FigureRow)
	if err != nil {
		t.Fatalf("NewSink failed: %v", err)
	}
	if err := sink.Write(testFigures); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, err := ReadFigures(path)
	if err != nil {
		t.Fatalf("ReadFigures failed: %v", err)
	}
	if !reflect.DeepEqual(got, testFigures) {
		t.Errorf("Round trip mismatch: got %+v, want %+v", got, testFigures)
	}
}

func TestSentenceSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sents := []segment.SentenceRecord{
		{RecordID: "PMC100", Text: "Figure 1 shows growth."},
		{RecordID: "PMC200", Text: "Data in fig. 2 agree."},
	}

	sink, path, err := NewSink(dir, SentenceBase, FormatTSV, SentenceColumns, SentenceRow)
	if err != nil {
		t.Fatalf("NewSink failed: %v", err)
	}
	if err := sink.Write(sents); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, err := ReadSentences(path)
	if err != nil {
		t.Fatalf("ReadSentences failed: %v", err)
	}
	if !reflect.DeepEqual(got, sents) {
		t.Errorf("Round trip mismatch: got %+v, want %+v", got, sents)
	}
}

func TestCorrelatedHeader(t *testing.T) {
	dir := t.TempDir()

	sink, path, err := NewSink(dir, CorrelatedBase, FormatTSV, CorrelatedColumns, CorrelatedRow)
	if err != nil {
		t.Fatalf("NewSink failed: %v", err)
	}
	if err := sink.Write([]correlate.Row{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	wantHeader := strings.Join(CorrelatedColumns, "\t")
	if got := strings.TrimSpace(string(content)); got != wantHeader {
		t.Errorf("Expected header %q, got %q", wantHeader, got)
	}
}

func TestColumnNames(t *testing.T) {
	want := []string{
		"PMC ID", "Figure ID", "Figure Label", "Associated Image File",
		"Sentences Before", "Sentences After", "Caption Title", "Caption Text",
	}
	if !reflect.DeepEqual(FigureColumns, want) {
		t.Errorf("Expected %v, got %v", want, FigureColumns)
	}
	if CorrelatedColumns[len(CorrelatedColumns)-1] != "Sentence" {
		t.Errorf("Expected Sentence column last, got %v", CorrelatedColumns)
	}
	if GroupedColumns[len(GroupedColumns)-1] != "Sentences" {
		t.Errorf("Expected Sentences column last, got %v", GroupedColumns)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "tsv", want: FormatTSV},
		{input: "TSV", want: FormatTSV},
		{input: "parquet", want: FormatParquet},
		{input: "xlsx", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCleanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "figure_data.tsv")

	w, err := NewWriter(path, FigureColumns)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	dirty := jats.FigureRecord{
		RecordID:      "PMC100",
		FigureID:      "F1",
		Label:         "Figure  1",
		ImageRef:      "fig1.png",
		ContextBefore: `\usepackage{amsmath} spaced   out`,
		ContextAfter:  "plain",
		CaptionTitle:  "A\u00a0title",
		CaptionText:   "ok",
	}
	if err := w.Write(FigureRow(dirty)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	outPath, err := CleanFile(path, textclean.Clean)
	if err != nil {
		t.Fatalf("CleanFile failed: %v", err)
	}
	if filepath.Base(outPath) != "figure_data_cleaned.tsv" {
		t.Errorf("Expected figure_data_cleaned.tsv, got %s", outPath)
	}

	got, err := ReadFigures(outPath)
	if err != nil {
		t.Fatalf("ReadFigures failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(got))
	}
	if got[0].Label != "Figure 1" {
		t.Errorf("Expected collapsed label, got %q", got[0].Label)
	}
	if got[0].ContextBefore != "spaced out" {
		t.Errorf("Expected command stripped, got %q", got[0].ContextBefore)
	}
	if got[0].CaptionTitle != "A title" {
		t.Errorf("Expected non-breaking space replaced, got %q", got[0].CaptionTitle)
	}
}

func TestReadFiguresMissingFile(t *testing.T) {
	if _, err := ReadFigures(filepath.Join(t.TempDir(), "absent.tsv")); err == nil {
		t.Error("Expected error for missing file")
	}
}
