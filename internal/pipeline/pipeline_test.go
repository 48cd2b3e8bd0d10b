package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/r-shadoff/figmine/internal/pmc"
	"github.com/r-shadoff/figmine/internal/table"
)

const articleTemplate = `<article xmlns:xlink="http://www.w3.org/1999/xlink">
  <body>
    <sec>
      <p>Figure 1 shows the apparatus in detail.</p>
      <p>As shown in <xref ref-type="fig" rid="%[1]s">Fig. 1</xref>, growth resumed.</p>
    </sec>
    <fig id="%[1]s">
      <label>Figure 1</label>
      <caption>
        <title>Apparatus.</title>
        <p>Overview of the apparatus.</p>
      </caption>
      <graphic xlink:href="%[1]s.png"/>
    </fig>
  </body>
</article>`

const figlessArticle = `<article><body><p>No imaging data accompanies this study.</p></body></article>`

const noIDArticle = `<article><body><fig><label>Figure 1</label></fig></body></article>`

func writeRecord(t *testing.T, root, name, article string, images ...string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "article.nxml"), []byte(article), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	for _, img := range images {
		if err := os.WriteFile(filepath.Join(dir, img), []byte("img"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
}

func TestRunEndToEnd(t *testing.T) {
	corpus := t.TempDir()
	unpacked := filepath.Join(corpus, pmc.UnpackDir)
	writeRecord(t, unpacked, "PMC1", fmt.Sprintf(articleTemplate, "F1"), "F1.png")
	writeRecord(t, unpacked, "PMC2", figlessArticle)

	r, err := NewRunner(Config{CorpusDir: corpus, Workers: 2, Grouped: true, SkipFetch: true})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{
		"figure_data.tsv", "sentence_data.tsv",
		"correlated_data.tsv", "correlated_data_grouped.tsv",
		"figure_data_cleaned.tsv", "correlated_data_cleaned.tsv",
		"correlated_data_grouped_cleaned.tsv",
	} {
		if _, err := os.Stat(filepath.Join(corpus, name)); err != nil {
			t.Errorf("Expected output %s: %v", name, err)
		}
	}

	figures, err := table.ReadFigures(filepath.Join(corpus, "figure_data.tsv"))
	if err != nil {
		t.Fatalf("ReadFigures failed: %v", err)
	}
	if len(figures) != 1 {
		t.Fatalf("Expected 1 figure, got %d", len(figures))
	}
	f := figures[0]
	if f.RecordID != "PMC1" || f.FigureID != "F1" || f.Label != "Figure 1" {
		t.Errorf("Unexpected figure record: %+v", f)
	}
	if f.ImageRef != "F1.png" || f.CaptionTitle != "Apparatus." || f.CaptionText != "Overview of the apparatus." {
		t.Errorf("Unexpected figure details: %+v", f)
	}
	if f.ContextBefore != "As shown in Fig. 1, growth resumed." {
		t.Errorf("Unexpected context before: %q", f.ContextBefore)
	}

	// The viable record ends up at the corpus root, the scratch
	// directories are gone.
	if _, err := os.Stat(filepath.Join(corpus, "PMC1", "article.nxml")); err != nil {
		t.Errorf("Expected PMC1 at corpus root: %v", err)
	}
	for _, gone := range []string{pmc.DownloadDir, pmc.UnpackDir, pmc.SortedDir} {
		if _, err := os.Stat(filepath.Join(corpus, gone)); !os.IsNotExist(err) {
			t.Errorf("Expected %s removed, got %v", gone, err)
		}
	}

	rep := r.Report()
	if rep.ViableRecords != 1 || rep.RemovedRecords != 1 {
		t.Errorf("Expected 1 viable and 1 removed, got %d/%d", rep.ViableRecords, rep.RemovedRecords)
	}
	if rep.RecordsProcessed != 1 || rep.RecordsFailed != 0 {
		t.Errorf("Expected 1 processed and 0 failed, got %d/%d", rep.RecordsProcessed, rep.RecordsFailed)
	}
	if rep.Figures != 1 || rep.Sentences < 1 || rep.CorrelatedRows < 1 {
		t.Errorf("Unexpected report counts: %+v", rep)
	}
	if want := []string{".nxml", ".png"}; !reflect.DeepEqual(rep.SurvivingExtensions, want) {
		t.Errorf("Expected extensions %v, got %v", want, rep.SurvivingExtensions)
	}

	reports, err := filepath.Glob(filepath.Join(corpus, "run_report_*.yaml"))
	if err != nil || len(reports) != 1 {
		t.Errorf("Expected one run report, got %v (%v)", reports, err)
	}
}

func TestRunParquetFormat(t *testing.T) {
	corpus := t.TempDir()
	unpacked := filepath.Join(corpus, pmc.UnpackDir)
	writeRecord(t, unpacked, "PMC1", fmt.Sprintf(articleTemplate, "F1"), "F1.png")

	r, err := NewRunner(Config{CorpusDir: corpus, Format: table.FormatParquet, SkipFetch: true})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{
		"figure_data.parquet", "sentence_data.parquet", "correlated_data.parquet",
		"figure_data_cleaned.parquet", "correlated_data_cleaned.parquet",
	} {
		if _, err := os.Stat(filepath.Join(corpus, name)); err != nil {
			t.Errorf("Expected output %s: %v", name, err)
		}
	}

	figures, err := table.ReadFigures(filepath.Join(corpus, "figure_data_cleaned.parquet"))
	if err != nil {
		t.Fatalf("ReadFigures failed: %v", err)
	}
	if len(figures) != 1 || figures[0].FigureID != "F1" {
		t.Errorf("Unexpected cleaned figures: %+v", figures)
	}
}

func TestRunSkipTidyKeepsRecords(t *testing.T) {
	corpus := t.TempDir()
	unpacked := filepath.Join(corpus, pmc.UnpackDir)
	writeRecord(t, unpacked, "PMC1", fmt.Sprintf(articleTemplate, "F1"), "F1.png")

	r, err := NewRunner(Config{CorpusDir: corpus, SkipFetch: true, SkipTidy: true})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(corpus, pmc.SortedDir, "PMC1", "article.nxml")); err != nil {
		t.Errorf("Expected PMC1 still under Sorted: %v", err)
	}
}

func TestExtractSkipsFailingRecord(t *testing.T) {
	corpus := t.TempDir()
	root := filepath.Join(corpus, "records")
	writeRecord(t, root, "PMC1", noIDArticle)
	writeRecord(t, root, "PMC2", fmt.Sprintf(articleTemplate, "F2"))
	writeRecord(t, root, "PMC3", fmt.Sprintf(articleTemplate, "F3"))

	r, err := NewRunner(Config{CorpusDir: corpus, Workers: 4})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	out, err := r.Extract(context.Background(), root)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if out.Processed != 2 || out.Failed != 1 {
		t.Errorf("Expected 2 processed and 1 failed, got %d/%d", out.Processed, out.Failed)
	}
	if len(out.Figures) != 2 {
		t.Fatalf("Expected 2 figures, got %d", len(out.Figures))
	}
	if out.Figures[0].RecordID != "PMC2" || out.Figures[1].RecordID != "PMC3" {
		t.Errorf("Expected figures in record order, got %s then %s",
			out.Figures[0].RecordID, out.Figures[1].RecordID)
	}

	rep := r.Report()
	if rep.RecordsFailed != 1 || len(rep.Failures) != 1 || rep.Failures[0].Record != "PMC1" {
		t.Errorf("Expected PMC1 reported as failed, got %+v", rep.Failures)
	}
}

func TestCorrelateGroupedOutput(t *testing.T) {
	corpus := t.TempDir()
	root := filepath.Join(corpus, "records")
	writeRecord(t, root, "PMC1", fmt.Sprintf(articleTemplate, "F1"))

	r, err := NewRunner(Config{CorpusDir: corpus, Grouped: true})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	figures, sents, err := r.mineRecord(filepath.Join(root, "PMC1"), "PMC1")
	if err != nil {
		t.Fatalf("mineRecord failed: %v", err)
	}
	out, err := r.Correlate(figures, sents)
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}

	if out.Rows < 1 {
		t.Errorf("Expected at least one correlated row, got %d", out.Rows)
	}
	if out.GroupedPath == "" {
		t.Fatal("Expected a grouped output path")
	}
	if _, err := os.Stat(out.GroupedPath); err != nil {
		t.Errorf("Expected grouped output written: %v", err)
	}
}
