package embed

import (
	"context"
	"sync"
	"time"
)

// Lazy defers building a provider until first use. Initialization runs
// under a mutex; a failed attempt is not cached, so the next call retries.
type Lazy struct {
	name string
	init func() (Provider, error)

	mu sync.Mutex
	p  Provider
}

// NewLazy returns a provider built by init on first use.
func NewLazy(name string, init func() (Provider, error)) *Lazy {
	return &Lazy{name: name, init: init}
}

// Get returns the underlying provider, building it if needed.
func (l *Lazy) Get() (Provider, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.p != nil {
		return l.p, nil
	}
	p, err := l.init()
	if err != nil {
		return nil, err
	}
	l.p = p
	return p, nil
}

func (l *Lazy) Name() string { return l.name }

func (l *Lazy) Prepare(corpus []string) error {
	p, err := l.Get()
	if err != nil {
		return err
	}
	return Prepare(p, corpus)
}

func (l *Lazy) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	p, err := l.Get()
	if err != nil {
		return nil, err
	}
	return p.EmbedDocuments(ctx, texts)
}

func (l *Lazy) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	p, err := l.Get()
	if err != nil {
		return nil, err
	}
	return p.EmbedQuery(ctx, text)
}

type timed struct {
	next  Provider
	stats *Stats
}

// Timed records the latency of every embedding call into stats.
func Timed(p Provider, stats *Stats) Provider {
	return &timed{next: p, stats: stats}
}

func (t *timed) Name() string                  { return t.next.Name() }
func (t *timed) Prepare(corpus []string) error { return Prepare(t.next, corpus) }

func (t *timed) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	defer func() { t.stats.Record(time.Since(start).Milliseconds()) }()
	return t.next.EmbedDocuments(ctx, texts)
}

func (t *timed) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() { t.stats.Record(time.Since(start).Milliseconds()) }()
	return t.next.EmbedQuery(ctx, text)
}
