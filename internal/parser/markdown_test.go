package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docrank/internal/outline"
)

func TestMarkdownParser_Headings(t *testing.T) {
	input := `# Travel Guide

Intro paragraph.

## 1. Getting There

Take the *train* from Paris.

### Tickets

Book early.

#### Deep Detail

Folded into H3.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "guide.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Travel Guide" {
		t.Errorf("expected title %q, got %q", "Travel Guide", doc.Title)
	}

	want := []struct {
		level outline.Level
		title string
	}{
		{outline.H1, "Travel Guide"},
		{outline.H2, "Getting There"},
		{outline.H3, "Tickets"},
		{outline.H3, "Deep Detail"},
	}
	if len(doc.Sections) != len(want) {
		t.Fatalf("expected %d sections, got %d: %+v", len(want), len(doc.Sections), doc.Sections)
	}
	for i, w := range want {
		s := doc.Sections[i]
		if s.Level != w.level || s.Title != w.title || s.Page != 1 {
			t.Errorf("section[%d]: expected %s %q page 1, got %+v", i, w.level, w.title, s)
		}
	}

	if got := doc.Sections[1].Content; !strings.Contains(got, "Take the train from Paris.") {
		t.Errorf("section content missing body: %q", got)
	}
	if strings.Count(doc.Sections[1].Content, "Take the train") != 1 {
		t.Errorf("body text duplicated: %q", doc.Sections[1].Content)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader("Just some text.\n\nAnd more."), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "plain" {
		t.Errorf("expected stem title, got %q", doc.Title)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Title != "Just some text." {
		t.Fatalf("expected single fallback section, got %+v", doc.Sections)
	}
}

func TestMarkdownParser_CodeBlock(t *testing.T) {
	input := "## Setup\n\n```\ngo install ./...\n```\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "setup.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "setup" {
		t.Errorf("expected stem title without H1, got %q", doc.Title)
	}
	if len(doc.Sections) != 1 || !strings.Contains(doc.Sections[0].Content, "go install") {
		t.Fatalf("code block content missing: %+v", doc.Sections)
	}
}
