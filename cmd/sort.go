package cmd

import (
	"log/slog"
	"path/filepath"

	"github.com/r-shadoff/figmine/internal/pmc"
	"github.com/spf13/cobra"
)

func newSortCmd() *cobra.Command {
	var corpusDir string

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Keep the unpacked records with usable figure data",
		Long: `Checks every record under <corpus>/Uncompressed for at least one image
file and an article with figure elements. Viable records move to
<corpus>/Sorted; the rest are deleted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			viable, removed, err := pmc.Sort(
				filepath.Join(corpusDir, pmc.UnpackDir),
				filepath.Join(corpusDir, pmc.SortedDir))
			if err != nil {
				return err
			}
			slog.Info("Sort complete", "viable", viable, "removed", removed)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", ".", "Corpus directory")

	return cmd
}
