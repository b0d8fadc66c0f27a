package embed

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// Cache stores vectors keyed by content hash. Implemented by the SQLite
// store; misses are not errors.
type Cache interface {
	GetVector(key string) ([]float32, bool, error)
	PutVector(key, model string, vector []float32) error
}

// Cached wraps an Embedder with a persistent cache so repeated analyses of
// the same transcript do not re-call the provider.
type Cached struct {
	inner Embedder
	cache Cache
}

// NewCached wraps an embedder with a cache.
func NewCached(inner Embedder, cache Cache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Model() string { return c.inner.Model() }

// Embed serves cache hits locally and forwards only the missing texts to
// the wrapped provider, preserving input order.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		key := CacheKey(c.inner.Model(), text)
		vec, ok, err := c.cache.GetVector(key)
		if err != nil {
			return nil, fmt.Errorf("cache lookup: %w", err)
		}
		if ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(missing))
	}

	for j, vec := range vectors {
		i := missingIdx[j]
		out[i] = vec
		key := CacheKey(c.inner.Model(), texts[i])
		if err := c.cache.PutVector(key, c.inner.Model(), vec); err != nil {
			return nil, fmt.Errorf("cache store: %w", err)
		}
	}
	return out, nil
}

// CacheKey hashes model and text into a stable cache key.
func CacheKey(model, text string) string {
	h := sha256.Sum256([]byte(model + "\x00" + text))
	return fmt.Sprintf("%x", h[:])
}
