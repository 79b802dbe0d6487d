package embed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider derives vectors from text length and counts calls.
type countingProvider struct {
	docCalls   atomic.Int32
	queryCalls atomic.Int32
	batches    [][]string
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	p.docCalls.Add(1)
	p.batches = append(p.batches, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (p *countingProvider) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	p.queryCalls.Add(1)
	return []float32{float32(len(text)), 1}, nil
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-3, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 2}))
}

func TestTFIDF_RequiresPrepare(t *testing.T) {
	_, err := NewTFIDF().EmbedQuery(context.Background(), "x")
	assert.Error(t, err)
	assert.Error(t, NewTFIDF().Prepare(nil))
}

func TestTFIDF_SimilarTextsScoreHigher(t *testing.T) {
	ctx := context.Background()
	e := NewTFIDF()
	corpus := []string{
		"roasted vegetable lasagna with spinach",
		"quarterly revenue and tax filings",
		"vegetable dinner",
	}
	require.NoError(t, e.Prepare(corpus))

	docs, err := e.EmbedDocuments(ctx, corpus[:2])
	require.NoError(t, err)
	q, err := e.EmbedQuery(ctx, corpus[2])
	require.NoError(t, err)
	require.NotEmpty(t, q)
	assert.Len(t, docs[0], len(q))

	assert.Greater(t, Cosine(q, docs[0]), Cosine(q, docs[1]))
	assert.Zero(t, Cosine(q, docs[1]))
}

func TestTFIDF_Deterministic(t *testing.T) {
	ctx := context.Background()
	a, b := NewTFIDF(), NewTFIDF()
	corpus := []string{"alpha beta", "beta gamma", "gamma delta"}
	require.NoError(t, a.Prepare(corpus))
	require.NoError(t, b.Prepare(corpus))

	va, _ := a.EmbedQuery(ctx, "beta gamma")
	vb, _ := b.EmbedQuery(ctx, "beta gamma")
	assert.Equal(t, va, vb)
}

func TestTFIDF_StopwordsOnlyCorpus(t *testing.T) {
	e := NewTFIDF()
	require.NoError(t, e.Prepare([]string{"the and of", "123 456"}))

	v, err := e.EmbedQuery(context.Background(), "the")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestCache_ForwardsOnlyMisses(t *testing.T) {
	ctx := context.Background()
	inner := &countingProvider{}
	c := NewCache(inner)

	first, err := c.EmbedDocuments(ctx, []string{"a", "bb", "a"})
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, first[0], first[2])
	assert.Equal(t, []string{"a", "bb"}, inner.batches[0])

	second, err := c.EmbedDocuments(ctx, []string{"bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, []string{"ccc"}, inner.batches[1])

	_, err = c.EmbedDocuments(ctx, []string{"a", "ccc"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.docCalls.Load())

	_, _ = c.EmbedQuery(ctx, "q")
	_, _ = c.EmbedQuery(ctx, "q")
	assert.EqualValues(t, 1, inner.queryCalls.Load())

	hits, misses := c.Counts()
	assert.Equal(t, 4, hits)
	assert.Equal(t, 5, misses)
}

func TestCacheCounts_LooksThroughWrappers(t *testing.T) {
	ctx := context.Background()
	c := NewCache(&countingProvider{})
	timedCache := Timed(c, NewStats(time.Hour))
	_, _ = timedCache.EmbedQuery(ctx, "q")
	_, _ = timedCache.EmbedQuery(ctx, "q")

	hits, misses, ok := CacheCounts(timedCache)
	require.True(t, ok)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	lazy := NewLazy("lazy", func() (Provider, error) { return timedCache, nil })
	_, _, ok = CacheCounts(lazy)
	assert.False(t, ok, "unbuilt lazy provider has no cache yet")
	_, err := lazy.Get()
	require.NoError(t, err)
	hits, _, ok = CacheCounts(lazy)
	require.True(t, ok)
	assert.Equal(t, 1, hits)

	_, _, ok = CacheCounts(Timed(NewTFIDF(), NewStats(time.Hour)))
	assert.False(t, ok)
	_, _, ok = CacheCounts(nil)
	assert.False(t, ok)
}

func TestLazy_RetriesFailedInit(t *testing.T) {
	calls := 0
	l := NewLazy("lazy", func() (Provider, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("model unavailable")
		}
		return NewTFIDF(), nil
	})

	_, err := l.EmbedQuery(context.Background(), "x")
	require.Error(t, err)

	require.NoError(t, l.Prepare([]string{"hello world"}))
	v, err := l.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 2)

	_, err = l.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTimed_RecordsEachCall(t *testing.T) {
	stats := NewStats(time.Hour)
	p := Timed(&countingProvider{}, stats)
	_, _ = p.EmbedDocuments(context.Background(), []string{"x"})
	_, _ = p.EmbedQuery(context.Background(), "y")
	assert.Equal(t, 2, stats.Snapshot().Count)
}

func TestPrepare_SkipsNonPreparers(t *testing.T) {
	assert.NoError(t, Prepare(&countingProvider{}, nil))
}

func TestNew(t *testing.T) {
	p, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, KindTFIDF, p.Name())

	p, err = New(Options{Kind: "TFIDF", Stats: NewStats(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, KindTFIDF, p.Name())

	_, err = New(Options{Kind: "word2vec"})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = New(Options{Kind: KindOpenAI})
	assert.Error(t, err)
}
