package outline

import "strings"

// Block is a structural element from a format that carries explicit heading
// markup (Markdown, HTML, DOCX). Level 0 is body text; 1..6 are headings.
type Block struct {
	Level int
	Text  string
}

// FromBlocks builds an outline from explicitly marked headings. Levels below
// H3 fold into H3. These formats have no pages, so every section reports
// page 1; a section's content runs from its heading to the next heading.
// Without any heading the whole text becomes a single fallback section.
func FromBlocks(title string, blocks []Block) *Document {
	doc := &Document{Title: strings.TrimSpace(title)}
	if doc.Title == "" {
		doc.Title = DefaultTitle
	}

	var (
		all     []string
		content []string
		open    = -1
	)
	flush := func() {
		if open >= 0 {
			doc.Sections[open].Content = strings.Join(content, "\n")
		}
		content = nil
	}

	for _, bl := range blocks {
		t := strings.TrimSpace(bl.Text)
		if t == "" {
			continue
		}
		all = append(all, t)
		if bl.Level > 0 {
			flush()
			title := StripListPrefix(t)
			if title == "" {
				title = t
			}
			doc.Sections = append(doc.Sections, Section{
				Level: blockLevel(bl.Level),
				Title: title,
				Page:  1,
			})
			open = len(doc.Sections) - 1
		}
		content = append(content, t)
	}
	flush()

	if len(doc.Sections) == 0 && len(all) > 0 {
		doc.Sections = Fallback([]Page{{Text: strings.Join(all, "\n")}})
	}
	return doc
}

func blockLevel(n int) Level {
	switch n {
	case 1:
		return H1
	case 2:
		return H2
	default:
		return H3
	}
}
