package cmd

import (
	"log/slog"

	"github.com/r-shadoff/figmine/internal/pipeline"
	"github.com/r-shadoff/figmine/internal/table"
	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	var input string
	var citations bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Normalize whitespace and strip markup from a mined table",
		Long: `Runs every cell of a mined table through the text cleaner: non-breaking
spaces and whitespace runs collapse to single spaces and LaTeX-style
commands are stripped outside math spans. With --citations it also drops
parenthesized author-year citations, the treatment meant for correlated
tables. The result is written alongside the input with a _cleaned
suffix.`,
		Example: `  # Clean the extracted figure table
  figmine clean --input figure_data.tsv

  # Clean a correlated table, citations included
  figmine clean --input correlated_data.tsv --citations`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out string
			var err error
			if citations {
				out, err = pipeline.CleanCorrelatedTable(input)
			} else {
				out, err = pipeline.CleanFigureTable(input)
			}
			if err != nil {
				return err
			}
			slog.Info("Clean complete", "output", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", table.FileName(table.FigureBase, table.FormatTSV), "Table to clean")
	cmd.Flags().BoolVar(&citations, "citations", false, "Also strip author-year citations")

	return cmd
}
