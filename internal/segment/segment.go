// Package segment splits article body text into sentences and keeps the
// ones that reference a figure.
package segment

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Terms whose presence keeps a sentence. Matching is case-sensitive
// literal substring, so the capitalized and lowercase forms are listed
// separately.
var figureTerms = []string{"Figure", "Fig", "figure", "fig", "fig. ", "Fig. "}

// continuationSuffix marks a sentence the tokenizer split too early,
// right after a figure abbreviation.
const continuationSuffix = "Fig."

// SentenceRecord is one kept sentence from one record.
type SentenceRecord struct {
	RecordID string `parquet:"pmc_id"`
	Text     string `parquet:"sentence"`
}

// Segmenter tokenizes text into sentences using the Punkt English model.
// Construct one per batch and share it; the tokenizer is read-only after
// construction and safe for concurrent use.
type Segmenter struct {
	tok *sentences.DefaultSentenceTokenizer
}

// NewSegmenter loads the English sentence tokenizer.
func NewSegmenter() (*Segmenter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence tokenizer: %w", err)
	}
	return &Segmenter{tok: tok}, nil
}

// Split returns every sentence in text, trimmed, in document order.
func (s *Segmenter) Split(text string) []string {
	tokens := s.tok.Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if t := strings.TrimSpace(tok.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FigureSentences returns the figure-referencing sentences of text in
// document order, with continuation repair applied.
func (s *Segmenter) FigureSentences(text string) []string {
	return Filter(s.Split(text))
}

// Filter keeps the figure-referencing sentences and repairs
// continuations: a kept sentence ending in "Fig." absorbs the single
// following sentence, which is then consumed and never re-examined. A
// trailing "Fig." with nothing after it is kept as is.
func Filter(sents []string) []string {
	var kept []string
	for i := 0; i < len(sents); i++ {
		t := sents[i]
		if !referencesFigure(t) {
			continue
		}
		if strings.HasSuffix(t, continuationSuffix) && i+1 < len(sents) {
			t = strings.TrimSpace(t + " " + sents[i+1])
			i++
		}
		kept = append(kept, t)
	}
	return kept
}

func referencesFigure(s string) bool {
	for _, term := range figureTerms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
