package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/docrank/internal/outline"
	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// PDFParser handles PDF files. It reads positioned glyphs with the Go
// library and groups them into lines and font spans. When the library
// fails and FallbackPdftotext is set, pdftotext supplies plain page text
// and every page becomes its own section.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*outline.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docrank-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := readPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		var text string
		if text, err = extractPdftotext(tmpPath); err == nil {
			pages = textPages(text)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return outline.Build(pages), nil
}

func readPDFPages(path string) (pages []outline.Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("pdf decoder panic: %v", rec)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages = make([]outline.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, outline.Page{})
			continue
		}
		pages = append(pages, readPage(page, i-1))
	}
	return pages, nil
}

func readPage(page pdflib.Page, idx int) (out outline.Page) {
	defer func() {
		if rec := recover(); rec != nil {
			text, _ := page.GetPlainText(nil)
			out = outline.Page{Text: text}
		}
	}()

	var texts []string
	for _, row := range groupRows(page.Content().Text) {
		line := buildLine(row, idx)
		if len(line.Spans) == 0 {
			continue
		}
		out.Lines = append(out.Lines, line)
		texts = append(texts, lineText(line))
	}
	out.Text = strings.Join(texts, "\n")
	return out
}

// groupRows clusters glyphs sharing a baseline into rows ordered top-down,
// each sorted left to right. Baselines within 30% of the glyph size share a row.
func groupRows(glyphs []pdflib.Text) [][]pdflib.Text {
	type row struct {
		y      float64
		glyphs []pdflib.Text
	}
	var rows []*row
	for _, g := range glyphs {
		if g.S == "" || g.S == "\n" {
			continue
		}
		tol := math.Max(1, g.FontSize*0.3)
		var hit *row
		for _, r := range rows {
			if math.Abs(r.y-g.Y) <= tol {
				hit = r
				break
			}
		}
		if hit == nil {
			hit = &row{y: g.Y}
			rows = append(rows, hit)
		}
		hit.glyphs = append(hit.glyphs, g)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	out := make([][]pdflib.Text, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].X < r.glyphs[j].X })
		out = append(out, r.glyphs)
	}
	return out
}

// buildLine merges a row of glyphs into spans of uniform font and size.
// A space is inserted where the horizontal gap between glyphs is wider than
// a fraction of the font size.
func buildLine(glyphs []pdflib.Text, page int) outline.Line {
	var (
		line  outline.Line
		cur   *outline.Span
		b     strings.Builder
		prevX = math.Inf(-1)
	)
	flush := func() {
		if cur != nil {
			// NFKC folds ligature glyphs such as "ﬁ" into plain letters.
			cur.Text = norm.NFKC.String(b.String())
			if strings.TrimSpace(cur.Text) != "" {
				line.Spans = append(line.Spans, *cur)
			}
		}
		cur = nil
		b.Reset()
	}

	for _, g := range glyphs {
		if g.S == "" || g.S == "\n" {
			continue
		}
		size := outline.RoundSize(g.FontSize)
		gap := g.X - prevX
		spaced := prevX != math.Inf(-1) && gap > g.FontSize*0.2
		if cur == nil || cur.Font != g.Font || cur.Size != size {
			flush()
			cur = &outline.Span{Font: g.Font, Size: size, Page: page}
		} else if spaced && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(g.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		prevX = g.X + g.W
	}
	flush()
	return line
}

func lineText(l outline.Line) string {
	parts := make([]string, 0, len(l.Spans))
	for _, s := range l.Spans {
		parts = append(parts, strings.TrimSpace(s.Text))
	}
	return strings.Join(parts, " ")
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// textPages splits form-feed separated text into pages without font data.
func textPages(text string) []outline.Page {
	text = strings.TrimSuffix(text, "\f")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var pages []outline.Page
	for _, p := range strings.Split(text, "\f") {
		pages = append(pages, outline.Page{Text: p})
	}
	return pages
}
