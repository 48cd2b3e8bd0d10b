package jats

import (
	"fmt"

	"github.com/antchfx/xmlquery"
)

// Sentinel values written when a figure lacks the corresponding piece of
// data. Downstream stages compare these by exact equality.
const (
	NoFigureLabel  = "No figure label"
	ImageNotFound  = "Not found"
	NoTextBefore   = "No text before"
	NoTextAfter    = "No text after"
	NoXrefFound    = "No xref found"
	NoCaptionTitle = "No caption title"
	NoCaptionText  = "No caption text"
)

// FigureRecord holds everything harvested for one figure element.
type FigureRecord struct {
	RecordID      string `parquet:"pmc_id"`
	FigureID      string `parquet:"figure_id"`
	Label         string `parquet:"figure_label"`
	ImageRef      string `parquet:"associated_image"`
	ContextBefore string `parquet:"sentences_before"`
	ContextAfter  string `parquet:"sentences_after"`
	CaptionTitle  string `parquet:"caption_title"`
	CaptionText   string `parquet:"caption_text"`
}

// ExtractFigures returns one record per figure element in document
// order. A figure without an id attribute aborts the whole document:
// the id is the correlation key and a record without one is unusable.
func (d *Document) ExtractFigures(recordID string) ([]FigureRecord, error) {
	markers := collect(d.root, KindCrossRef)
	figures := collect(d.root, KindFigure)

	records := make([]FigureRecord, 0, len(figures))
	for i, fig := range figures {
		id := normalizeText(attrLocal(fig, "id"))
		if id == "" {
			return nil, fmt.Errorf("figure %d of %d has no id attribute", i+1, len(figures))
		}

		rec := FigureRecord{
			RecordID: recordID,
			FigureID: id,
			Label:    NoFigureLabel,
			ImageRef: ImageNotFound,
		}
		if label := firstOf(fig, KindLabel); label != nil {
			rec.Label = normalizeText(label.InnerText())
		}
		if g := firstOf(fig, KindGraphic); g != nil {
			rec.ImageRef = normalizeText(attrLocal(g, "href"))
		}
		rec.ContextBefore, rec.ContextAfter = contextAround(markers, id)
		rec.CaptionTitle, rec.CaptionText = captionOf(fig)

		records = append(records, rec)
	}
	return records, nil
}

// contextAround resolves the paragraph before and after the first
// cross-reference marker targeting figureID. A matching marker outside
// any paragraph does not stop the scan; the next matching marker may
// still supply context. A document with no markers at all reports
// NoXrefFound for both sides.
func contextAround(markers []*xmlquery.Node, figureID string) (before, after string) {
	if len(markers) == 0 {
		return NoXrefFound, NoXrefFound
	}
	before, after = NoTextBefore, NoTextAfter
	for _, m := range markers {
		if normalizeText(attrLocal(m, "rid")) != figureID {
			continue
		}
		p := ancestorOf(m, KindParagraph)
		if p == nil {
			continue
		}
		before = normalizeText(p.InnerText())
		if sib := nextSiblingOf(p, KindParagraph); sib != nil {
			after = normalizeText(sib.InnerText())
		}
		break
	}
	return before, after
}

// captionOf reads title and body text from the figure's caption. When a
// figure carries several caption blocks the last one wins wholesale, so
// a final caption without a title resets the title to its sentinel.
func captionOf(fig *xmlquery.Node) (title, text string) {
	title, text = NoCaptionTitle, NoCaptionText
	block := lastOf(fig, KindCaption)
	if block == nil {
		return title, text
	}
	if t := firstOf(block, KindTitle); t != nil {
		title = normalizeText(t.InnerText())
	}
	if p := firstOf(block, KindParagraph); p != nil {
		text = normalizeText(p.InnerText())
	}
	return title, text
}
