package outline

import "sort"

const defaultBodySize = 12

// maxLevels is how many sizes above body text become headings.
const maxLevels = 3

// Classify derives the body size and heading levels from font size statistics.
//
// The body size is the most frequent rounded size; ties go to the size seen
// first. Up to three distinct sizes strictly larger than the body size map to
// H1, H2 and H3 from largest to smallest. With no spans the body size is 12
// and no levels are assigned.
func Classify(spans []Span) (int, LevelMap) {
	levels := LevelMap{}
	if len(spans) == 0 {
		return defaultBodySize, levels
	}

	counts := make(map[int]int)
	var order []int
	for _, s := range spans {
		if _, seen := counts[s.Size]; !seen {
			order = append(order, s.Size)
		}
		counts[s.Size]++
	}

	body := order[0]
	for _, size := range order[1:] {
		if counts[size] > counts[body] {
			body = size
		}
	}

	var larger []int
	for _, size := range order {
		if size > body {
			larger = append(larger, size)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(larger)))

	for i, size := range larger {
		if i == maxLevels {
			break
		}
		levels[size] = []Level{H1, H2, H3}[i]
	}
	return body, levels
}

// Spans flattens every span of every line across pages, in reading order.
func Spans(pages []Page) []Span {
	var out []Span
	for _, p := range pages {
		for _, l := range p.Lines {
			out = append(out, l.Spans...)
		}
	}
	return out
}
