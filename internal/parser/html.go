package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docrank/internal/outline"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Page chrome (scripts, navigation, headers
// and footers) is dropped before h1-h6 headings and text blocks are read.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = stem(filename)
	}

	doc.Find("script, style, noscript, nav, footer, header").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var blocks []outline.Block
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				blocks = append(blocks, outline.Block{Level: level, Text: textContent(n)})
				return // Don't recurse into heading children (already extracted text).
			}
			switch n.Data {
			case "p", "li", "td", "th", "blockquote", "pre", "dt", "dd":
				if t := textContent(n); t != "" {
					blocks = append(blocks, outline.Block{Text: t})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}

	return outline.FromBlocks(title, blocks), nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
