// Package embed turns text into vectors for semantic ranking.
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// ErrUnknownProvider is returned by New for an unrecognised provider kind.
var ErrUnknownProvider = errors.New("unknown embedding provider")

// Provider kinds accepted by New.
const (
	KindTFIDF  = "tfidf"
	KindOllama = "ollama"
	KindOpenAI = "openai"
)

// Provider embeds documents and queries into fixed-length vectors. Identical
// input must produce identical output for a given model.
type Provider interface {
	Name() string
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Preparer is implemented by providers that fit themselves to a corpus
// before embedding, such as TF-IDF.
type Preparer interface {
	Prepare(corpus []string) error
}

// Prepare fits p to corpus when p needs it and is a no-op otherwise.
func Prepare(p Provider, corpus []string) error {
	if pr, ok := p.(Preparer); ok {
		return pr.Prepare(corpus)
	}
	return nil
}

// Options selects and configures a provider.
type Options struct {
	Kind      string
	Model     string
	BaseURL   string
	APIKey    string
	BatchSize int
	RPS       float64 // remote requests per second, 0 for unlimited

	// MaxInputTokens clips remote inputs; 0 uses the default.
	MaxInputTokens int

	Stats *Stats
	Log   *slog.Logger
}

// New builds the provider described by opts. Remote providers are wrapped
// with a content-hash cache; every provider records latency into opts.Stats
// when it is set.
func New(opts Options) (Provider, error) {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	var p Provider
	switch strings.ToLower(opts.Kind) {
	case "", KindTFIDF:
		p = NewTFIDF()
	case KindOllama:
		r, err := NewOllama(opts)
		if err != nil {
			return nil, err
		}
		p = NewCache(r)
	case KindOpenAI:
		r, err := NewOpenAI(opts)
		if err != nil {
			return nil, err
		}
		p = NewCache(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Kind)
	}

	if opts.Stats != nil {
		p = Timed(p, opts.Stats)
	}
	return p, nil
}

// Cosine returns the cosine similarity of a and b. Zero-length or zero-norm
// vectors, and vectors of different length, have similarity 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
