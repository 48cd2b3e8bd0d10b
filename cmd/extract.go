package cmd

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/r-shadoff/figmine/internal/pipeline"
	"github.com/r-shadoff/figmine/internal/table"
	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	var corpusDir string
	var format string
	var workers int
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract figure and sentence tables from record directories",
		Long: `Walks the record directories under the corpus, parses each article, and
writes two tables into the corpus directory: one row per figure with its
label, image file, caption, and surrounding text, and one row per body
sentence that references a figure. Records that fail to parse are logged
and skipped.`,
		Example: `  # Extract from the current directory with default settings
  figmine extract

  # Parquet output with 8 workers
  figmine extract --corpus ./papers --format parquet --workers 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := table.ParseFormat(format)
			if err != nil {
				return err
			}
			runner, err := pipeline.NewRunner(pipeline.Config{
				CorpusDir: corpusDir,
				Workers:   workers,
				Timeout:   timeout,
				Format:    f,
			})
			if err != nil {
				return err
			}
			out, err := runner.Extract(cmd.Context(), corpusDir)
			if err != nil {
				return err
			}
			slog.Info("Extract complete",
				"figures", len(out.Figures), "sentences", len(out.Sentences),
				"failed", out.Failed, "figure_table", out.FigurePath, "sentence_table", out.SentencePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", ".", "Corpus directory of record folders")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Concurrent record workers")
	cmd.Flags().DurationVar(&timeout, "timeout", pipeline.DefaultTimeout, "Per-record processing timeout")
	cmd.Flags().StringVar(&format, "format", "tsv", "Output format: tsv or parquet")

	return cmd
}
