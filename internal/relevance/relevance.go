package relevance

import "strings"

// queryKeywordsPerCategory caps how many keywords a matched category adds
// to a query when no template applies.
const queryKeywordsPerCategory = 3

// BuildQuery composes the ranking query for a task. Templates are tried in
// table order; a template is added when any of its words occurs in the
// lower-cased task. With no template match, every keyword category with a
// keyword in the task contributes its first three keywords. The persona does
// not currently influence the query.
func (t *Tables) BuildQuery(persona, task string) string {
	taskLower := strings.ToLower(task)

	var parts []string
	for _, tpl := range t.Templates {
		if containsAny(taskLower, strings.Fields(strings.ToLower(tpl.Text))) {
			parts = append(parts, tpl.Text)
		}
	}

	if len(parts) == 0 {
		for _, c := range t.QueryKeywords {
			if containsAny(taskLower, c.Keywords) {
				n := min(queryKeywordsPerCategory, len(c.Keywords))
				parts = append(parts, c.Keywords[:n]...)
			}
		}
	}
	return strings.Join(parts, " ")
}

// Include decides whether a section is worth ranking. Sections whose text
// hits an exclusion category are dropped; the rest must mention at least one
// query keyword in their title or text. The task is accepted for symmetry
// with BuildQuery and does not change the decision.
func (t *Tables) Include(title, text, task string) bool {
	if _, excluded := t.Excluded(text); excluded {
		return false
	}

	textLower := strings.ToLower(text)
	titleLower := strings.ToLower(title)
	for _, c := range t.QueryKeywords {
		if containsAny(titleLower, c.Keywords) || containsAny(textLower, c.Keywords) {
			return true
		}
	}
	return false
}

// Excluded reports the first exclusion category matching text, if any.
func (t *Tables) Excluded(text string) (string, bool) {
	textLower := strings.ToLower(text)
	for _, p := range t.Penalties {
		if p.Action == ActionExclude && containsAny(textLower, p.Keywords) {
			return p.Name, true
		}
	}
	return "", false
}

// Score is the keyword-derived relevance of a section. The title is not
// consulted; only the text and the source document name are. The result is
// unbounded in both directions.
func (t *Tables) Score(title, text, document string) float64 {
	var score float64

	docLower := strings.ToLower(document)
	for _, p := range t.Preferences {
		if strings.Contains(docLower, strings.ToLower(p.Pattern)) {
			score += p.Score * t.Weights.DocumentPreference
			break
		}
	}

	textLower := strings.ToLower(text)
	for _, b := range t.Boosts {
		if containsAny(textLower, b.Keywords) {
			score += b.Score * t.Weights.KeywordBoost
		}
	}
	for _, p := range t.Penalties {
		if p.Action == ActionPenalty && containsAny(textLower, p.Keywords) {
			score += p.Score * t.Weights.Penalty
		}
	}
	return score
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
