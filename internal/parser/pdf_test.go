package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docrank/internal/outline"
	pdflib "github.com/ledongthuc/pdf"
)

func glyphs(font string, size, x float64, s string) []pdflib.Text {
	var out []pdflib.Text
	for _, r := range s {
		out = append(out, pdflib.Text{Font: font, FontSize: size, X: x, W: size * 0.5, S: string(r)})
		x += size * 0.5
	}
	return out
}

func TestBuildLine_MergesAndSplitsSpans(t *testing.T) {
	var row []pdflib.Text
	row = append(row, glyphs("Helvetica-Bold", 16, 0, "Intro")...)
	// A wide gap before the next word in the same font.
	row = append(row, glyphs("Helvetica-Bold", 16, 60, "duction")...)
	row = append(row, glyphs("Helvetica", 11.6, 200, "body")...)

	line := buildLine(row, 2)
	if len(line.Spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(line.Spans), line.Spans)
	}
	if line.Spans[0].Text != "Intro duction" {
		t.Errorf("expected gap to become a space, got %q", line.Spans[0].Text)
	}
	if line.Spans[0].Size != 16 || line.Spans[0].Page != 2 {
		t.Errorf("unexpected first span %+v", line.Spans[0])
	}
	if line.Spans[1].Size != 12 || line.Spans[1].Font != "Helvetica" {
		t.Errorf("expected rounded body span, got %+v", line.Spans[1])
	}
	if got := lineText(line); got != "Intro duction body" {
		t.Errorf("unexpected line text %q", got)
	}
}

func TestBuildLine_FoldsLigatures(t *testing.T) {
	line := buildLine(glyphs("Times", 12, 0, "ﬁle"), 0)
	if len(line.Spans) != 1 || line.Spans[0].Text != "file" {
		t.Errorf("expected ligature to fold, got %+v", line.Spans)
	}
}

func TestBuildLine_SkipsBlankGlyphs(t *testing.T) {
	line := buildLine(glyphs("Times", 12, 0, "   "), 0)
	if len(line.Spans) != 0 {
		t.Errorf("expected no spans, got %+v", line.Spans)
	}
}

// headings.pdf positions page 1 with Td and page 2 with Tm. Headings are
// Helvetica-Bold 24/18/16 over Helvetica 12 body text.
func TestPDFParser_ParsesHeadingsFromFile(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "headings.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	doc, err := (&PDFParser{}).Parse(f, "headings.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "Dinner Menu Guide" {
		t.Errorf("expected title from the largest span, got %q", doc.Title)
	}

	want := []outline.Section{
		{Level: outline.H1, Title: "Dinner Menu Guide", Page: 1},
		{Level: outline.H2, Title: "Vegetable Mains", Page: 1},
		{Level: outline.H3, Title: "Side Dishes", Page: 1},
		{Level: outline.H2, Title: "Evening Entrees", Page: 2},
	}
	if len(doc.Sections) != len(want) {
		t.Fatalf("expected %d sections, got %d: %+v", len(want), len(doc.Sections), doc.Sections)
	}
	for i, w := range want {
		got := doc.Sections[i]
		if got.Level != w.Level || got.Title != w.Title || got.Page != w.Page {
			t.Errorf("section %d: expected %s %q p%d, got %s %q p%d",
				i, w.Level, w.Title, w.Page, got.Level, got.Title, got.Page)
		}
	}

	page1 := strings.Join([]string{
		"Dinner Menu Guide",
		"1. Vegetable Mains",
		"Roasted squash with sage butter.",
		"Lentil stew served with flatbread.",
		"2.3 Side Dishes",
		"Garlic green beans and rice pilaf.",
	}, "\n")
	if doc.Sections[1].Content != page1 {
		t.Errorf("unexpected page 1 content:\n%s", doc.Sections[1].Content)
	}
	if !strings.Contains(doc.Sections[3].Content, "Mushroom risotto for two.") {
		t.Errorf("expected page 2 body in content, got %q", doc.Sections[3].Content)
	}
}

func TestGroupRows_OrdersTopDownAndLeftToRight(t *testing.T) {
	at := func(s string, x, y float64) pdflib.Text {
		return pdflib.Text{Font: "Times", FontSize: 12, X: x, Y: y, W: 6, S: s}
	}
	// Content order is scrambled; the second glyph sits slightly off the baseline.
	rows := groupRows([]pdflib.Text{
		at("b", 6, 700), at("Z", 30, 500.5), at("a", 0, 700.4),
		{S: "\n", Y: 700}, at("c", 12, 699.8), at("Y", 24, 500),
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	var got []string
	for _, r := range rows {
		var b strings.Builder
		for _, g := range r {
			b.WriteString(g.S)
		}
		got = append(got, b.String())
	}
	if got[0] != "abc" || got[1] != "YZ" {
		t.Errorf("unexpected rows %q", got)
	}
}
