package outline

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var listPrefix = regexp.MustCompile(`^\d+(\.\d+)*\.?\s*`)

// minLineRunes drops page numbers, stray bullets and similar noise.
const minLineRunes = 3

// titlePages is how many leading pages may supply the document title.
const titlePages = 2

type action int

const (
	actSkip action = iota
	actStart
	actExtend
	actCommit
)

// decide picks the transition for one line given the primary span and the
// level currently being accumulated ("" when idle).
func decide(s Span, body int, levels LevelMap, current Level) (action, Level) {
	if utf8.RuneCountInString(strings.TrimSpace(s.Text)) < minLineRunes {
		return actSkip, ""
	}
	level, ok := levels[s.Size]
	switch {
	case ok && (IsBold(s.Font) || s.Size > body+2):
		return actStart, level
	case ok && current != "" && level == current:
		return actExtend, level
	default:
		return actCommit, ""
	}
}

// builder accumulates one heading at a time. An empty level means idle.
type builder struct {
	level   Level
	title   string
	page    int
	content string

	sections []Section
}

func (b *builder) start(level Level, title string, page int, content string) {
	b.commit()
	b.level = level
	b.title = title
	b.page = page
	b.content = content
}

func (b *builder) extend(text string) {
	b.title += " " + text
}

func (b *builder) commit() {
	if b.title != "" {
		b.sections = append(b.sections, Section{
			Level:   b.level,
			Title:   StripListPrefix(b.title),
			Page:    b.page + 1,
			Content: b.content,
		})
	}
	b.level, b.title, b.page, b.content = "", "", 0, ""
}

// Build extracts the outline of a decoded document. A document with no pages
// yields an empty title and no sections. When no heading is detected every
// page becomes an H1 section (see Fallback).
func Build(pages []Page) *Document {
	if len(pages) == 0 {
		return &Document{}
	}

	body, levels := Classify(Spans(pages))

	var (
		b         builder
		title     string
		titleSize int
	)
	for idx, page := range pages {
		for _, line := range page.Lines {
			s, ok := line.Primary()
			if !ok {
				continue
			}
			act, level := decide(s, body, levels, b.level)
			if act == actSkip {
				continue
			}

			text := strings.TrimSpace(s.Text)
			if idx < titlePages && s.Size > titleSize {
				titleSize = s.Size
				title = text
			}

			switch act {
			case actStart:
				b.start(level, text, idx, page.Text)
			case actExtend:
				b.extend(text)
			case actCommit:
				b.commit()
			}
		}
		b.commit()
	}

	doc := &Document{Title: title, Sections: b.sections}
	if doc.Title == "" {
		doc.Title = DefaultTitle
	}
	if len(doc.Sections) == 0 {
		doc.Sections = Fallback(pages)
	}
	return doc
}

// Fallback emits one H1 section per page, titled by the page's first
// non-blank line.
func Fallback(pages []Page) []Section {
	sections := make([]Section, 0, len(pages))
	for i, p := range pages {
		sections = append(sections, Section{
			Level:   H1,
			Title:   firstLine(p.Text),
			Page:    i + 1,
			Content: p.Text,
		})
	}
	return sections
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}
	return UntitledPage
}

// StripListPrefix removes a leading section number such as "2.1 " or "3." and trims.
func StripListPrefix(title string) string {
	return strings.TrimSpace(listPrefix.ReplaceAllString(title, ""))
}
