package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/r-shadoff/figmine/internal/jats"
	"github.com/r-shadoff/figmine/internal/pmc"
	"github.com/r-shadoff/figmine/internal/segment"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var corpusDir string
	var record string
	var limit int
	var interactive bool
	var showFigures bool
	var showSentences bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect what extraction would harvest from records",
		Long: `Parses records and prints the figures and figure-referencing sentences
extraction would produce, without writing any tables. Useful for checking
a record that extracts badly or for eyeballing a fresh download.`,
		Example: `  # Inspect one record
  figmine inspect --record PMC1790863

  # Page through the first 5 records of a corpus
  figmine inspect --corpus ./papers --limit 5 --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeInspect(cmd.Context(), corpusDir, record, limit, interactive, showFigures, showSentences)
		},
	}

	cmd.Flags().StringVar(&corpusDir, "corpus", ".", "Corpus directory of record folders")
	cmd.Flags().StringVar(&record, "record", "", "Inspect a single record directory by name")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each record (press Enter to continue)")
	cmd.Flags().BoolVar(&showFigures, "figures", true, "Show extracted figures")
	cmd.Flags().BoolVar(&showSentences, "sentences", true, "Show figure-referencing sentences")

	return cmd
}

func executeInspect(ctx context.Context, corpusDir, record string, limit int, interactive, showFigures, showSentences bool) error {
	seg, err := segment.NewSegmenter()
	if err != nil {
		return err
	}

	var dirs []string
	if record != "" {
		dirs = []string{filepath.Join(corpusDir, record)}
	} else {
		all, err := pmc.Records(corpusDir)
		if err != nil {
			return err
		}
		for _, dir := range all {
			if pmc.IsRecord(filepath.Base(dir)) {
				dirs = append(dirs, dir)
			}
		}
		if limit > 0 && len(dirs) > limit {
			dirs = dirs[:limit]
		}
	}

	fmt.Printf("Inspecting %d records under %s\n", len(dirs), corpusDir)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for i, dir := range dirs {
		select {
		case <-ctx.Done():
			fmt.Println("\nInspection interrupted.")
			return nil
		default:
		}

		id := pmc.RecordID(dir)
		fmt.Printf("RECORD %d/%d: %s\n", i+1, len(dirs), id)
		fmt.Println(strings.Repeat("-", 80))

		if err := inspectRecord(seg, dir, id, showFigures, showSentences); err != nil {
			fmt.Printf("Cannot inspect: %v\n\n", err)
			continue
		}

		if interactive && i < len(dirs)-1 {
			fmt.Print("Press Enter to continue to next record (or Ctrl+C to quit)...")

			inputCh := make(chan struct{})
			go func() {
				_, _ = reader.ReadString('\n')
				close(inputCh)
			}()

			select {
			case <-ctx.Done():
				fmt.Println("\nInspection interrupted.")
				return nil
			case <-inputCh:
				fmt.Println()
			}
		}
	}

	return nil
}

func inspectRecord(seg *segment.Segmenter, dir, id string, showFigures, showSentences bool) error {
	articlePath, err := pmc.FindArticleFile(dir)
	if err != nil {
		return err
	}
	doc, err := jats.ParseFile(articlePath)
	if err != nil {
		return err
	}

	fmt.Printf("Article: %s\n\n", filepath.Base(articlePath))

	if showFigures {
		figures, err := doc.ExtractFigures(id)
		if err != nil {
			return err
		}
		fmt.Printf("Figures: %d\n", len(figures))
		for _, f := range figures {
			fmt.Printf("  %s  label=%q  image=%s\n", f.FigureID, f.Label, f.ImageRef)
			fmt.Printf("    Title:   %s\n", truncate(f.CaptionTitle, 100))
			fmt.Printf("    Caption: %s\n", truncate(f.CaptionText, 100))
		}
		fmt.Println()
	}

	if showSentences {
		sents := seg.FigureSentences(doc.BodyText())
		fmt.Printf("Figure sentences: %d\n", len(sents))
		for _, s := range sents {
			fmt.Printf("  - %s\n", truncate(s, 100))
		}
		fmt.Println()
	}

	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
