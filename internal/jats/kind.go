package jats

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// Kind identifies the element types the extraction pipeline cares about.
// Classification is case-insensitive on the element name and happens in
// one place so structural rules never compare tag strings directly.
type Kind int

const (
	KindOther Kind = iota
	KindFigure
	KindLabel
	KindGraphic
	KindCaption
	KindParagraph
	KindCrossRef
	KindTitle
	KindBody
	KindObjectID
	KindArticleID
)

// KindOf classifies a node. Non-element nodes are KindOther.
func KindOf(n *xmlquery.Node) Kind {
	if n == nil || n.Type != xmlquery.ElementNode {
		return KindOther
	}
	switch strings.ToLower(n.Data) {
	case "fig":
		return KindFigure
	case "label":
		return KindLabel
	case "graphic":
		return KindGraphic
	case "caption":
		return KindCaption
	case "p":
		return KindParagraph
	case "xref":
		return KindCrossRef
	case "title":
		return KindTitle
	case "body":
		return KindBody
	case "object-id":
		return KindObjectID
	case "article-id":
		return KindArticleID
	}
	return KindOther
}

// walk visits every element beneath n in document order. Returning false
// from visit stops the walk.
func walk(n *xmlquery.Node, visit func(*xmlquery.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && !visit(c) {
			return false
		}
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

// firstOf returns the first descendant of n with the given kind, in
// document order.
func firstOf(n *xmlquery.Node, k Kind) *xmlquery.Node {
	var found *xmlquery.Node
	walk(n, func(c *xmlquery.Node) bool {
		if KindOf(c) == k {
			found = c
			return false
		}
		return true
	})
	return found
}

// lastOf returns the last descendant of n with the given kind, in
// document order.
func lastOf(n *xmlquery.Node, k Kind) *xmlquery.Node {
	var found *xmlquery.Node
	walk(n, func(c *xmlquery.Node) bool {
		if KindOf(c) == k {
			found = c
		}
		return true
	})
	return found
}

// collect returns every descendant of n with the given kind, in document
// order.
func collect(n *xmlquery.Node, k Kind) []*xmlquery.Node {
	var nodes []*xmlquery.Node
	walk(n, func(c *xmlquery.Node) bool {
		if KindOf(c) == k {
			nodes = append(nodes, c)
		}
		return true
	})
	return nodes
}

// ancestorOf returns the nearest ancestor of n with the given kind.
func ancestorOf(n *xmlquery.Node, k Kind) *xmlquery.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if KindOf(p) == k {
			return p
		}
	}
	return nil
}

// nextSiblingOf returns the nearest following sibling of n with the
// given kind.
func nextSiblingOf(n *xmlquery.Node, k Kind) *xmlquery.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if KindOf(s) == k {
			return s
		}
	}
	return nil
}

// attrLocal returns the value of the attribute whose local name matches,
// ignoring any namespace prefix. JATS image references arrive as
// xlink:href with varying namespace bindings.
func attrLocal(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
