package cmd

import (
	"log/slog"

	"github.com/r-shadoff/figmine/internal/housekeep"
	"github.com/r-shadoff/figmine/internal/pipeline"
	"github.com/spf13/cobra"
)

func newTidyCmd() *cobra.Command {
	var corpusDir string
	var exts []string

	cmd := &cobra.Command{
		Use:   "tidy",
		Short: "Flatten the corpus and prune unwanted file types",
		Long: `Moves the sorted records up to the corpus root, deletes files with the
given extensions from each record, reports the extensions that survive,
and removes the pipeline's working directories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := pipeline.Tidy(corpusDir, exts)
			if err != nil {
				return err
			}
			slog.Info("Tidy complete", "moved", res.Moved, "removed", res.Removed, "extensions", res.Extensions)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", ".", "Corpus directory")
	cmd.Flags().StringSliceVar(&exts, "extensions", housekeep.DefaultRemoveExts, "File extensions to delete from records")

	return cmd
}
