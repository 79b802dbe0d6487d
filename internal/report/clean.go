package report

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxFieldRunes caps every sanitized text field.
	MaxFieldRunes = 2000
	// MaxRefinedRunes caps the excerpt in subsection_analysis.
	MaxRefinedRunes = 1000
	// Ellipsis marks a truncated field.
	Ellipsis = "..."
)

var (
	numberedMarker = regexp.MustCompile(`(?:^|\s)\d+\.(?:\s+|$)`)
	bulletMarker   = regexp.MustCompile(`(?:^|\s)[-*•]+(?:\s+|$)`)
)

func dropGlyph(r rune) rune {
	switch r {
	case '\u2028', '\u2029':
		return ' '
	case '\uf0b7', '\u2022', '\u2023', '\u25e6', '\u2043', '\u2219':
		return -1
	}
	if unicode.IsSpace(r) {
		return ' '
	}
	if unicode.IsControl(r) {
		return -1
	}
	return r
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Clean normalises extracted text for JSON output: control characters and
// bullet glyphs are removed, whitespace is collapsed, numbered-list and
// dash or asterisk markers at token starts are stripped, and the result is
// capped at MaxFieldRunes runes plus an ellipsis. Clean is idempotent.
func Clean(s string) string {
	s = collapse(strings.Map(dropGlyph, s))
	for {
		next := numberedMarker.ReplaceAllString(s, " ")
		next = collapse(bulletMarker.ReplaceAllString(next, " "))
		if next == s {
			break
		}
		s = next
	}
	return truncate(s, MaxFieldRunes)
}

// Refine shortens already-cleaned section text to the excerpt length.
func Refine(s string) string {
	return truncate(s, MaxRefinedRunes)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + Ellipsis
}
