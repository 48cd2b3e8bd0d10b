package cmd

import (
	"log/slog"
	"path/filepath"

	"github.com/r-shadoff/figmine/internal/archive"
	"github.com/r-shadoff/figmine/internal/pmc"
	"github.com/spf13/cobra"
)

func newUnpackCmd() *cobra.Command {
	var corpusDir string

	cmd := &cobra.Command{
		Use:   "unpack",
		Short: "Extract downloaded article packages",
		Long: `Extracts every .tar.gz under <corpus>/Downloaded_Files into
<corpus>/Uncompressed. Empty archives are deleted and corrupt ones
skipped with a warning.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := archive.UnpackAll(cmd.Context(),
				filepath.Join(corpusDir, pmc.DownloadDir),
				filepath.Join(corpusDir, pmc.UnpackDir))
			if err != nil {
				return err
			}
			slog.Info("Unpack complete", "archives", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", ".", "Corpus directory")

	return cmd
}
