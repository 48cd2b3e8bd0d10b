package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "figmine",
		Short: "Figure caption mining for PubMed Central open access articles",
		Long: `Figmine mines figure data from PubMed Central open access packages.

It downloads article archives from the PMC FTP service, unpacks them, keeps
the records with usable figure data, extracts per-figure captions together
with the body sentences that reference each figure, and writes the results
as TSV or parquet tables.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newUnpackCmd())
	cmd.AddCommand(newSortCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newCorrelateCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newTidyCmd())
	cmd.AddCommand(newInspectCmd())

	return cmd
}
