// Package embed turns transcript segments into vectors via remote
// embedding APIs. Providers are registered by name; a cache wrapper avoids
// re-embedding text that was seen before.
package embed

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Embedder maps a batch of texts to one vector per text.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model identifies the embedding model, used for cache keying.
	Model() string
}

// Options configures a provider constructed from the registry.
type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	BatchSize int
}

// Factory constructs an Embedder from options.
type Factory func(opts Options) Embedder

var registry = map[string]Factory{}

// Register adds a provider factory under a name. Called from provider
// package init functions.
func Register(name string, f Factory) {
	registry[name] = f
}

// New constructs a named provider.
func New(name string, opts Options) (Embedder, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider %q (have %v)", name, names())
	}
	return f(opts), nil
}

func names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// CosineSimilarity returns the cosine of the angle between two vectors.
// Zero-norm vectors compare as 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Nearest returns the index of the vector most similar to query, and the
// similarity score. Returns -1 when vectors is empty.
func Nearest(query []float32, vectors [][]float32) (int, float64) {
	best, bestScore := -1, -2.0
	for i, v := range vectors {
		if s := CosineSimilarity(query, v); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}
