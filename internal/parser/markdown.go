package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. ATX and setext
// headings become outline sections; the first H1 doubles as the title.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	title := ""
	var blocks []outline.Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			t := extractText(node, src)
			if title == "" && node.Level == 1 {
				title = t
			}
			blocks = append(blocks, outline.Block{Level: node.Level, Text: t})
		default:
			if t := extractText(n, src); t != "" {
				blocks = append(blocks, outline.Block{Text: t})
			}
		}
	}

	if title == "" {
		title = stem(filename)
	}
	return outline.FromBlocks(title, blocks), nil
}

// extractText gets the text content of a goldmark AST node. Leaf blocks
// such as code fences contribute their raw lines; everything else is read
// from its inline children.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
