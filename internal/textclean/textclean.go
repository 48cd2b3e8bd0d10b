// Package textclean normalizes harvested text through a fixed sequence of
// idempotent cleaning stages: whitespace normalization, formatting-command
// removal, and citation removal.
package textclean

import (
	"regexp"
	"strings"
)

var (
	// Runs of whitespace other than tabs, Unicode spaces included. Tabs
	// are the TSV field separator and must survive cleaning untouched.
	spaceRunRE = regexp.MustCompile(`[\n\v\f\r\x{85}\p{Z}]+`)

	// Formatting command shapes left behind by math-heavy articles:
	// \documentclass[...]{...}, \usepackage{...}, \setlength{...},
	// \begin{...}, \end{...}, and the generic \word{...}.
	commandRE = regexp.MustCompile(`\\(?:documentclass\[[^\]]*\]\{[^}]*\}|usepackage\{[^}]*\}|setlength\{[^}]*\}|begin\{[^}]*\}|end\{[^}]*\}|[a-zA-Z]+\{[^}]*\})`)

	// Inline math spans, $...$ or \(...\). Content inside these is
	// meaningful notation and is never stripped.
	mathSpanRE = regexp.MustCompile(`\$[^$]*\$|\\\([^)]*\\\)`)

	citationRE = regexp.MustCompile(citationPattern())
)

// citationPattern builds the pattern for parenthesized author-year
// citation groups: (Smith, 2019), (Smith et al., 2020a),
// (Smith and Jones 2019), and semicolon-separated combinations.
func citationPattern() string {
	author := `[A-Z][A-Za-z'.-]+`
	cite := author + `(?:\s+(?:et al\.?|and\s+` + author + `))?,?\s+\d{4}[a-z]?`
	return `\(\s*` + cite + `(?:\s*;\s*` + cite + `)*\s*\)`
}

// Simple replaces non-breaking spaces with plain spaces, collapses every
// run of non-tab whitespace to a single space, and trims the result.
func Simple(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = spaceRunRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripCommands removes formatting-command shapes from s while leaving
// inline math spans untouched, then re-normalizes whitespace. Text inside
// $...$ and \(...\) passes through verbatim even when it looks like a
// command.
func StripCommands(s string) string {
	spans := mathSpanRE.FindAllStringIndex(s, -1)
	if spans == nil {
		return Simple(commandRE.ReplaceAllString(s, ""))
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, span := range spans {
		b.WriteString(commandRE.ReplaceAllString(s[last:span[0]], ""))
		b.WriteString(s[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(commandRE.ReplaceAllString(s[last:], ""))
	return Simple(b.String())
}

// StripCitations removes parenthesized author-year citation groups and
// re-normalizes whitespace. Correlated sentence text is the only caller;
// figure metadata keeps its citations.
func StripCitations(s string) string {
	return Simple(citationRE.ReplaceAllString(s, ""))
}

// Clean is the per-cell normalizer for extraction output: whitespace
// normalization followed by command removal.
func Clean(s string) string {
	return StripCommands(Simple(s))
}

// CleanCorrelated extends Clean with citation removal for
// correlation-stage text.
func CleanCorrelated(s string) string {
	return StripCitations(Clean(s))
}
