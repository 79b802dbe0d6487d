// Package relevance holds the keyword tables that drive query building,
// section filtering and keyword scoring.
package relevance

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_tables.yaml
var defaultTables []byte

// DefaultSource is reported as the configuration source when no tables file is given.
const DefaultSource = "built-in tables"

// Action says what a penalty category does when it matches.
type Action string

const (
	ActionExclude Action = "exclude"
	ActionPenalty Action = "penalty"
)

// Category is a named keyword list.
type Category struct {
	Name     string
	Keywords []string
}

// Weighted is a boost or penalty category.
type Weighted struct {
	Name     string
	Keywords []string `yaml:"keywords"`
	Score    float64  `yaml:"score"`
	Action   Action   `yaml:"action"`
}

// Preference boosts sections from documents whose filename contains Pattern.
type Preference struct {
	Pattern string
	Score   float64
}

// Template is query text added when any of its words occurs in the task.
type Template struct {
	Name string
	Text string
}

// Weights scale each scoring component.
type Weights struct {
	SemanticSimilarity float64 `yaml:"semantic_similarity" json:"semantic_similarity"`
	KeywordBoost       float64 `yaml:"keyword_boost" json:"keyword_boost"`
	DocumentPreference float64 `yaml:"document_preference" json:"document_preference"`
	Penalty            float64 `yaml:"penalty" json:"penalty"`
}

// Tables is the full ranking configuration. Slices keep file order, which
// decides template order in queries and which document preference wins.
// Tables are read-only once loaded.
type Tables struct {
	QueryKeywords []Category
	Boosts        []Weighted
	Penalties     []Weighted
	Preferences   []Preference
	Templates     []Template
	Weights       Weights

	// Source names where the tables came from.
	Source string
}

// Default returns the built-in tables.
func Default() *Tables {
	t, err := Parse(defaultTables)
	if err != nil {
		panic(fmt.Sprintf("relevance: built-in tables: %v", err))
	}
	t.Source = DefaultSource
	return t
}

// Load reads tables from a YAML file. An empty path returns the built-in tables.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ranking tables: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse ranking tables %s: %w", path, err)
	}
	t.Source = path
	return t, nil
}

// Parse decodes and validates a YAML tables document.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks penalty actions and weights.
func (t *Tables) Validate() error {
	var errs []error
	for _, p := range t.Penalties {
		switch p.Action {
		case ActionExclude, ActionPenalty:
		default:
			errs = append(errs, fmt.Errorf("penalty %q: unknown action %q", p.Name, p.Action))
		}
	}
	if len(t.QueryKeywords) == 0 {
		errs = append(errs, errors.New("query_keywords: at least one category is required"))
	}
	return errors.Join(errs...)
}

type rawTables struct {
	QueryKeywords yaml.Node `yaml:"query_keywords"`
	Boosts        yaml.Node `yaml:"boost_words"`
	Penalties     yaml.Node `yaml:"penalty_words"`
	Preferences   yaml.Node `yaml:"document_preferences"`
	Templates     yaml.Node `yaml:"query_templates"`
	Weights       *Weights  `yaml:"scoring_weights"`
}

// UnmarshalYAML decodes the mapping sections in document order.
func (t *Tables) UnmarshalYAML(value *yaml.Node) error {
	var raw rawTables
	if err := value.Decode(&raw); err != nil {
		return err
	}

	out := Tables{Weights: Weights{SemanticSimilarity: 1, KeywordBoost: 1, DocumentPreference: 1, Penalty: 1}}
	if raw.Weights != nil {
		out.Weights = *raw.Weights
	}

	err := errors.Join(
		eachEntry(&raw.QueryKeywords, "query_keywords", func(name string, kw []string) {
			out.QueryKeywords = append(out.QueryKeywords, Category{Name: name, Keywords: lower(kw)})
		}),
		eachEntry(&raw.Boosts, "boost_words", func(name string, w Weighted) {
			w.Name, w.Keywords = name, lower(w.Keywords)
			out.Boosts = append(out.Boosts, w)
		}),
		eachEntry(&raw.Penalties, "penalty_words", func(name string, w Weighted) {
			w.Name, w.Keywords = name, lower(w.Keywords)
			out.Penalties = append(out.Penalties, w)
		}),
		eachEntry(&raw.Preferences, "document_preferences", func(pattern string, score float64) {
			out.Preferences = append(out.Preferences, Preference{Pattern: pattern, Score: score})
		}),
		eachEntry(&raw.Templates, "query_templates", func(name string, text string) {
			out.Templates = append(out.Templates, Template{Name: name, Text: text})
		}),
	)
	if err != nil {
		return err
	}
	*t = out
	return nil
}

// eachEntry walks a YAML mapping in order, decoding every value as V.
// An absent section is not an error.
func eachEntry[V any](n *yaml.Node, section string, fn func(key string, v V)) error {
	if n.Kind == 0 {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("%s (line %d): expected a mapping", section, n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		var v V
		if err := n.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("%s.%s: %w", section, key, err)
		}
		fn(key, v)
	}
	return nil
}

func lower(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
