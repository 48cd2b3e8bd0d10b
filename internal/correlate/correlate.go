// Package correlate joins extracted figures with the body sentences that
// mention them.
package correlate

import (
	"strings"

	"github.com/r-shadoff/figmine/internal/jats"
	"github.com/r-shadoff/figmine/internal/segment"
)

// Row is one figure paired with one matching sentence. A figure with no
// matching sentences still appears exactly once, with an empty Sentence,
// so every extracted figure survives into correlation output.
type Row struct {
	RecordID      string `parquet:"pmc_id"`
	FigureID      string `parquet:"figure_id"`
	Label         string `parquet:"figure_label"`
	ImageRef      string `parquet:"associated_image"`
	ContextBefore string `parquet:"sentences_before"`
	ContextAfter  string `parquet:"sentences_after"`
	CaptionTitle  string `parquet:"caption_title"`
	CaptionText   string `parquet:"caption_text"`
	Sentence      string `parquet:"sentence"`
}

func newRow(f jats.FigureRecord, sentence string) Row {
	return Row{
		RecordID:      f.RecordID,
		FigureID:      f.FigureID,
		Label:         f.Label,
		ImageRef:      f.ImageRef,
		ContextBefore: f.ContextBefore,
		ContextAfter:  f.ContextAfter,
		CaptionTitle:  f.CaptionTitle,
		CaptionText:   f.CaptionText,
		Sentence:      sentence,
	}
}

// Correlate pairs every figure with the sentences of its own record that
// mention it. A sentence matches when it contains the figure id or a
// non-empty, non-sentinel label as a literal, case-sensitive substring.
// Figures keep their input order and the rows for one figure are
// contiguous, in sentence input order.
func Correlate(figures []jats.FigureRecord, sents []segment.SentenceRecord) []Row {
	byRecord := make(map[string][]segment.SentenceRecord)
	for _, s := range sents {
		byRecord[s.RecordID] = append(byRecord[s.RecordID], s)
	}

	rows := make([]Row, 0, len(figures))
	for _, f := range figures {
		matched := false
		for _, s := range byRecord[f.RecordID] {
			if matches(f, s.Text) {
				rows = append(rows, newRow(f, s.Text))
				matched = true
			}
		}
		if !matched {
			rows = append(rows, newRow(f, ""))
		}
	}
	return rows
}

func matches(f jats.FigureRecord, sentence string) bool {
	if strings.Contains(sentence, f.FigureID) {
		return true
	}
	// An empty label would match every sentence, so only a non-empty,
	// non-sentinel label participates.
	if f.Label == "" || f.Label == jats.NoFigureLabel {
		return false
	}
	return strings.Contains(sentence, f.Label)
}

// Group merges fan-out rows that share the same figure into one row per
// figure, joining sentence texts with single spaces in first-observed
// order. Rows are keyed by the full figure tuple, not just the id, so
// figures from different records never merge.
func Group(rows []Row) []Row {
	var order []Row
	joined := make(map[Row][]string)
	for _, r := range rows {
		k := r
		k.Sentence = ""
		if _, ok := joined[k]; !ok {
			order = append(order, k)
			joined[k] = nil
		}
		if r.Sentence != "" {
			joined[k] = append(joined[k], r.Sentence)
		}
	}

	out := make([]Row, 0, len(order))
	for _, k := range order {
		texts := joined[k]
		k.Sentence = strings.Join(texts, " ")
		out = append(out, k)
	}
	return out
}
