package cmd

import (
	"log/slog"
	"path/filepath"

	"github.com/r-shadoff/figmine/internal/pipeline"
	"github.com/r-shadoff/figmine/internal/table"
	"github.com/spf13/cobra"
)

func newCorrelateCmd() *cobra.Command {
	var corpusDir string
	var format string
	var grouped bool

	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Pair extracted figures with the sentences that mention them",
		Long: `Reads the figure and sentence tables produced by extract and writes a
correlated table with one row per figure and matching sentence. A figure
nobody mentions still gets one row with an empty sentence column. With
--grouped an additional table joins all matches for a figure into a
single row.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := table.ParseFormat(format)
			if err != nil {
				return err
			}
			figures, err := table.ReadFigures(filepath.Join(corpusDir, table.FileName(table.FigureBase, f)))
			if err != nil {
				return err
			}
			sents, err := table.ReadSentences(filepath.Join(corpusDir, table.FileName(table.SentenceBase, f)))
			if err != nil {
				return err
			}

			runner, err := pipeline.NewRunner(pipeline.Config{CorpusDir: corpusDir, Format: f, Grouped: grouped})
			if err != nil {
				return err
			}
			out, err := runner.Correlate(figures, sents)
			if err != nil {
				return err
			}
			slog.Info("Correlate complete", "rows", out.Rows, "path", out.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", ".", "Corpus directory holding the extracted tables")
	cmd.Flags().StringVar(&format, "format", "tsv", "Table format: tsv or parquet")
	cmd.Flags().BoolVar(&grouped, "grouped", false, "Also write a table with one row per figure")

	return cmd
}
