package cmd

import (
	"log/slog"
	"path/filepath"

	"github.com/r-shadoff/figmine/internal/pipeline"
	"github.com/r-shadoff/figmine/internal/pmc"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var corpusDir string
	var host string
	var dir string
	var subdir string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a shard of article archives from the PMC FTP service",
		Long: `Downloads every .tar.gz package in one shard of the PMC open access
archive into <corpus>/Downloaded_Files. The archive is organized as
oa_package/<dir>/<subdir> on the server; already downloaded archives
are skipped, so an interrupted fetch can simply be rerun.`,
		Example: `  # Download shard 00/01 into ./Downloaded_Files
  figmine fetch --dir 00 --subdir 01

  # Download from a mirror
  figmine fetch --host mirror.example.edu:21 --dir 08 --subdir 15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			destDir := filepath.Join(corpusDir, pmc.DownloadDir)
			n, err := pipeline.FetchShard(cmd.Context(), host, dir, subdir, destDir)
			if err != nil {
				return err
			}
			slog.Info("Fetch complete", "archives", n, "dest", destDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", ".", "Corpus directory")
	cmd.Flags().StringVar(&host, "host", "", "FTP host:port (defaults to the NCBI service, or FIGMINE_FTP_HOST)")
	cmd.Flags().StringVar(&dir, "dir", "00", "First shard level of the open access archive")
	cmd.Flags().StringVar(&subdir, "subdir", "01", "Second shard level of the open access archive")

	return cmd
}
