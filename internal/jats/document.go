// Package jats parses JATS article XML (.nxml) and extracts per-figure
// metadata, captions, and surrounding body text.
package jats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Document is a parsed JATS article.
type Document struct {
	root *xmlquery.Node
}

// Parse reads article XML from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article XML: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseFile reads article XML from the file at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open article file: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// HasFigures reports whether the article contains at least one figure
// element.
func (d *Document) HasFigures() bool {
	return firstOf(d.root, KindFigure) != nil
}

// BodyText flattens the article body to plain text with every whitespace
// run collapsed to a single space. Bibliographic cross-references and DOI
// identifier elements are skipped so citation markers and DOIs never
// reach the sentence segmenter. When the article has no body element the
// whole document is flattened.
func (d *Document) BodyText() string {
	root := d.root
	if b := firstOf(d.root, KindBody); b != nil {
		root = b
	}
	var parts []string
	var gather func(n *xmlquery.Node)
	gather = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode && excludedFromText(c) {
				continue
			}
			if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
				parts = append(parts, strings.Fields(c.Data)...)
			}
			gather(c)
		}
	}
	gather(root)
	return strings.Join(parts, " ")
}

func excludedFromText(n *xmlquery.Node) bool {
	switch KindOf(n) {
	case KindCrossRef:
		return attrLocal(n, "ref-type") == "bibr"
	case KindObjectID, KindArticleID:
		return attrLocal(n, "pub-id-type") == "doi"
	}
	return false
}

// normalizeText trims s and collapses internal whitespace runs to single
// spaces, the baseline normalization applied to every harvested value.
// Command and citation cleanup happens later in the cleaning stage.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
