package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/outline"
)

// TextParser handles plain text files. Form feeds separate pages; with no
// font information every non-empty page becomes an H1 section titled by its
// first line.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &outline.Document{Title: stem(filename)}

	var pages []outline.Page
	for _, page := range textPages(strings.ReplaceAll(string(data), "\r\n", "\n")) {
		pages = append(pages, outline.Page{Text: strings.TrimSpace(page.Text)})
	}
	for _, s := range outline.Fallback(pages) {
		if s.Content != "" {
			doc.Sections = append(doc.Sections, s)
		}
	}
	return doc, nil
}
