package parser

import (
	"fmt"
	"strings"
	"testing"
)

func TestCSVParser_Batches(t *testing.T) {
	var b strings.Builder
	b.WriteString("dish,diet\n")
	for i := 0; i < 45; i++ {
		fmt.Fprintf(&b, "dish%d,vegetarian\n", i)
	}

	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(b.String()), "menu.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "menu" {
		t.Errorf("expected title %q, got %q", "menu", doc.Title)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(doc.Sections))
	}

	titles := []string{"Rows 2-21", "Rows 22-41", "Rows 42-46"}
	for i, want := range titles {
		if doc.Sections[i].Title != want {
			t.Errorf("section[%d]: expected %q, got %q", i, want, doc.Sections[i].Title)
		}
	}
	if !strings.Contains(doc.Sections[0].Content, "dish: dish0, diet: vegetarian") {
		t.Errorf("unexpected content: %q", doc.Sections[0].Content)
	}
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader("a,b\n"), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Sections) != 0 {
		t.Errorf("expected no sections, got %d", len(doc.Sections))
	}
}
