package cmd

import (
	"runtime"
	"time"

	"github.com/r-shadoff/figmine/internal/pipeline"
	"github.com/r-shadoff/figmine/internal/table"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var corpusDir string
	var format string
	var workers int
	var timeout time.Duration
	var grouped bool
	var skipFetch bool
	var skipTidy bool
	var host string
	var dir string
	var subdir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full mining pipeline end to end",
		Long: `Runs every stage in order: fetch a shard of article archives, unpack
them, sort out the records without usable figure data, extract the
figure and sentence tables, correlate them, clean the outputs, and tidy
the corpus directory. A YAML run report lands in the corpus when the
pipeline finishes.`,
		Example: `  # Mine shard 00/01 into ./corpus
  figmine run --corpus ./corpus --dir 00 --subdir 01

  # Re-process already downloaded archives
  figmine run --corpus ./corpus --skip-fetch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := table.ParseFormat(format)
			if err != nil {
				return err
			}
			runner, err := pipeline.NewRunner(pipeline.Config{
				CorpusDir:    corpusDir,
				Workers:      workers,
				Timeout:      timeout,
				Format:       f,
				Grouped:      grouped,
				SkipFetch:    skipFetch,
				SkipTidy:     skipTidy,
				FTPHost:      host,
				RemoteDir:    dir,
				RemoteSubdir: subdir,
			})
			if err != nil {
				return err
			}
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", ".", "Corpus directory")
	cmd.Flags().StringVar(&format, "format", "tsv", "Output format: tsv or parquet")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Concurrent record workers")
	cmd.Flags().DurationVar(&timeout, "timeout", pipeline.DefaultTimeout, "Per-record processing timeout")
	cmd.Flags().BoolVar(&grouped, "grouped", false, "Also write a correlated table with one row per figure")
	cmd.Flags().BoolVar(&skipFetch, "skip-fetch", false, "Skip the FTP download stage")
	cmd.Flags().BoolVar(&skipTidy, "skip-tidy", false, "Leave the working directories in place")
	cmd.Flags().StringVar(&host, "host", "", "FTP host:port (defaults to the NCBI service, or FIGMINE_FTP_HOST)")
	cmd.Flags().StringVar(&dir, "dir", "00", "First shard level of the open access archive")
	cmd.Flags().StringVar(&subdir, "subdir", "01", "Second shard level of the open access archive")

	return cmd
}
