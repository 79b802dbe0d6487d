package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docrank/internal/outline"
)

func TestTextParser_SinglePage(t *testing.T) {
	input := "Coastal Towns\nNice has a long promenade.\n\nAntibes has a market."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	if len(doc.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(doc.Sections))
	}
	s := doc.Sections[0]
	if s.Title != "Coastal Towns" || s.Level != outline.H1 || s.Page != 1 {
		t.Errorf("unexpected section %+v", s)
	}
	if !strings.Contains(s.Content, "Antibes has a market.") {
		t.Errorf("content lost body text: %q", s.Content)
	}
}

func TestTextParser_FormFeedPages(t *testing.T) {
	input := "Page one\r\nbody\fPage two\nmore\f"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "paged.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	if doc.Sections[1].Title != "Page two" || doc.Sections[1].Page != 2 {
		t.Errorf("unexpected second section %+v", doc.Sections[1])
	}
	if strings.Contains(doc.Sections[0].Content, "\r") {
		t.Errorf("carriage return not normalized: %q", doc.Sections[0].Content)
	}
}

func TestTextParser_BlankPagesSkipped(t *testing.T) {
	input := "First\f   \n\fThird"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	if doc.Sections[1].Page != 3 {
		t.Errorf("expected original page number 3, got %d", doc.Sections[1].Page)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if len(doc.Sections) != 0 {
		t.Errorf("expected 0 sections for empty input, got %d", len(doc.Sections))
	}
}
