package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter"
)

// CachedProvider memoizes embeddings per text. The tools server embeds the same
// queries repeatedly; chunk extraction never goes through the cache.
type CachedProvider struct {
	inner Provider
	cache otter.Cache[string, []float32]
}

// NewCachedProvider wraps inner with a bounded cache of capacity entries.
func NewCachedProvider(inner Provider, capacity int, ttl time.Duration) (*CachedProvider, error) {
	cache, err := otter.MustBuilder[string, []float32](capacity).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding cache: %w", err)
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

// Embed returns cached vectors where present and embeds the misses in a single call.
func (p *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		misses  []string
		missIdx []int
	)
	for i, text := range texts {
		if v, ok := p.cache.Get(text); ok {
			out[i] = v
			continue
		}
		misses = append(misses, text)
		missIdx = append(missIdx, i)
	}
	if len(misses) == 0 {
		return out, nil
	}

	vectors, err := p.inner.Embed(ctx, misses)
	if err != nil {
		return nil, err
	}
	if err := Validate(vectors, len(misses), p.inner.Dimensions()); err != nil {
		return nil, err
	}
	for j, v := range vectors {
		out[missIdx[j]] = v
		p.cache.Set(misses[j], v)
	}
	return out, nil
}

// Dimensions returns the wrapped provider's dimensionality.
func (p *CachedProvider) Dimensions() int {
	return p.inner.Dimensions()
}

// Close stops the cache and closes the wrapped provider.
func (p *CachedProvider) Close() error {
	p.cache.Close()
	return p.inner.Close()
}
