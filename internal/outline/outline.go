// Package outline turns positioned text spans into a document outline of
// H1/H2/H3 headings, each tied to the page it starts on.
package outline

import (
	"encoding/json"
	"math"
	"strings"
)

// Level is a heading level label.
type Level string

const (
	H1 Level = "H1"
	H2 Level = "H2"
	H3 Level = "H3"
)

const (
	// DefaultTitle is used when no title candidate is found on the first two pages.
	DefaultTitle = "Extracted Document Title"
	// UnknownTitle marks a document that could not be read at all.
	UnknownTitle = "Unknown Title"
	// UntitledPage names a fallback section whose page has no text.
	UntitledPage = "Untitled Page"
)

// Span is a run of text sharing one font and size.
type Span struct {
	Text string
	Font string
	Size int // point size, rounded half-to-even
	Page int // 0-based page index
}

// Line is a visual line of text. Its first span is the primary span used
// for heading detection.
type Line struct {
	Spans []Span
}

// Primary returns the line's first span.
func (l Line) Primary() (Span, bool) {
	if len(l.Spans) == 0 {
		return Span{}, false
	}
	return l.Spans[0], true
}

// Page is one page of a decoded document.
type Page struct {
	Text  string // full plain text of the page
	Lines []Line
}

// LevelMap assigns heading levels to rounded font sizes.
type LevelMap map[int]Level

// Section is one outline entry.
type Section struct {
	Level   Level  `json:"level"`
	Title   string `json:"text"`
	Page    int    `json:"page"` // 1-based
	Content string `json:"-"`    // full text of the page the heading starts on
}

// Document is the extracted outline of one file.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"outline"`
}

// MarshalJSON always emits "outline" as an array.
func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	p := plain(d)
	if p.Sections == nil {
		p.Sections = []Section{}
	}
	return json.Marshal(p)
}

// Unknown is the outline reported for a document that failed to decode.
func Unknown() *Document {
	return &Document{Title: UnknownTitle}
}

// RoundSize rounds a point size the way the size statistics expect.
func RoundSize(size float64) int {
	return int(math.RoundToEven(size))
}

// IsBold reports whether a font name looks like a heavy weight.
func IsBold(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "bold") || strings.Contains(f, "black") || strings.Contains(f, "heavy")
}
