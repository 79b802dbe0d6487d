package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Cache memoises vectors by content hash for the life of the process.
// Only misses are forwarded, in one batch, to the wrapped provider.
type Cache struct {
	next Provider

	mu      sync.Mutex
	vectors map[string][]float32
	hits    int
	misses  int
}

// NewCache wraps next with an in-memory vector cache.
func NewCache(next Provider) *Cache {
	return &Cache{next: next, vectors: make(map[string][]float32)}
}

func (c *Cache) Name() string { return c.next.Name() }

// Prepare forwards to the wrapped provider.
func (c *Cache) Prepare(corpus []string) error { return Prepare(c.next, corpus) }

func (c *Cache) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missing []string
		slots   [][]int
		index   = make(map[string]int)
	)

	c.mu.Lock()
	for i, t := range texts {
		k := cacheKey("doc", t)
		if v, ok := c.vectors[k]; ok {
			out[i] = v
			c.hits++
			continue
		}
		c.misses++
		j, seen := index[k]
		if !seen {
			j = len(missing)
			index[k] = j
			missing = append(missing, t)
			slots = append(slots, nil)
		}
		slots[j] = append(slots[j], i)
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedDocuments(ctx, missing)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for j, v := range vecs {
		c.vectors[cacheKey("doc", missing[j])] = v
		for _, i := range slots[j] {
			out[i] = v
		}
	}
	return out, nil
}

func (c *Cache) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	k := cacheKey("query", text)
	c.mu.Lock()
	if v, ok := c.vectors[k]; ok {
		c.hits++
		c.mu.Unlock()
		return v, nil
	}
	c.misses++
	c.mu.Unlock()

	v, err := c.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.vectors[k] = v
	c.mu.Unlock()
	return v, nil
}

// Counts returns cache hits and misses so far.
func (c *Cache) Counts() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// CacheCounts reports the hits and misses of the cache inside p, looking
// through the Timed and Lazy wrappers. ok is false when p has no cache or a
// Lazy provider has not been built yet.
func CacheCounts(p Provider) (hits, misses int, ok bool) {
	for p != nil {
		switch v := p.(type) {
		case *Cache:
			hits, misses = v.Counts()
			return hits, misses, true
		case *timed:
			p = v.next
		case *Lazy:
			v.mu.Lock()
			p = v.p
			v.mu.Unlock()
		default:
			return 0, 0, false
		}
	}
	return 0, 0, false
}

func cacheKey(kind, text string) string {
	h := sha256.Sum256([]byte(text))
	return kind + ":" + hex.EncodeToString(h[:])
}
