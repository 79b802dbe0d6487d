// Package rank orders candidate sections by combined semantic and keyword
// relevance to a query.
package rank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/relevance"
)

// TopK is the number of sections a ranking returns at most.
const TopK = 5

// Candidate is a section eligible for ranking.
type Candidate struct {
	Document     string
	SectionTitle string
	Text         string
	PageNumber   int
}

// Scored is a ranked candidate with its score components.
type Scored struct {
	Candidate
	Similarity float64 // cosine similarity to the query
	Relevance  float64 // keyword score
	Score      float64 // combined ranking key
}

// Ranker scores candidates with an embedding provider and keyword tables.
type Ranker struct {
	embedder embed.Provider
	tables   *relevance.Tables
	log      *slog.Logger
}

func New(embedder embed.Provider, tables *relevance.Tables, log *slog.Logger) *Ranker {
	if log == nil {
		log = slog.Default()
	}
	return &Ranker{embedder: embedder, tables: tables, log: log}
}

// Select keeps the candidates the keyword filter accepts for task. When
// nothing passes, every candidate is kept and fellBack is true.
func (r *Ranker) Select(candidates []Candidate, task string) (selected []Candidate, fellBack bool) {
	for _, c := range candidates {
		if r.tables.Include(c.SectionTitle, c.Text, task) {
			selected = append(selected, c)
		}
	}
	if len(selected) == 0 && len(candidates) > 0 {
		r.log.Warn("no sections passed the relevance filter, ranking all sections", "sections", len(candidates))
		return candidates, true
	}
	return selected, false
}

// Rank embeds every candidate and the query, combines similarity with the
// keyword score and returns at most TopK candidates by descending score.
// Ties keep input order.
func (r *Ranker) Rank(ctx context.Context, query string, candidates []Candidate) ([]Scored, error) {
	if len(candidates) == 0 {
		return []Scored{}, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.SectionTitle + " " + c.Text
	}

	corpus := append(append([]string{}, texts...), query)
	if err := embed.Prepare(r.embedder, corpus); err != nil {
		return nil, fmt.Errorf("prepare %s embedder: %w", r.embedder.Name(), err)
	}
	vecs, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed sections: %w", err)
	}
	if len(vecs) != len(candidates) {
		return nil, fmt.Errorf("embed sections: got %d vectors for %d sections", len(vecs), len(candidates))
	}
	qvec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		sim := embed.Cosine(qvec, vecs[i])
		rel := r.tables.Score(c.SectionTitle, c.Text, c.Document)
		scored[i] = Scored{
			Candidate:  c,
			Similarity: sim,
			Relevance:  rel,
			Score:      sim*r.tables.Weights.SemanticSimilarity + rel,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > TopK {
		scored = scored[:TopK]
	}
	return scored, nil
}
