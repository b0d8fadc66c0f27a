package embed

import (
	"context"
	"math"
	"testing"
)

var (
	_ Embedder = (*fakeEmbedder)(nil)
	_ Embedder = (*Cached)(nil)
)

// fakeEmbedder returns deterministic vectors and counts calls.
type fakeEmbedder struct {
	calls     int
	lastBatch []string
}

func (f *fakeEmbedder) Model() string { return "fake-model" }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.lastBatch = texts
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

// memCache is an in-memory Cache for tests.
type memCache struct {
	vectors map[string][]float32
}

func newMemCache() *memCache {
	return &memCache{vectors: make(map[string][]float32)}
}

func (m *memCache) GetVector(key string) ([]float32, bool, error) {
	v, ok := m.vectors[key]
	return v, ok, nil
}

func (m *memCache) PutVector(key, _ string, vector []float32) error {
	m.vectors[key] = vector
	return nil
}

func TestCached_MissesForwardedThenHit(t *testing.T) {
	fake := &fakeEmbedder{}
	cached := NewCached(fake, newMemCache())

	texts := []string{"alpha", "beta gamma"}
	first, err := cached.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", fake.calls)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(first))
	}

	second, err := cached.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("expected cache to serve repeat request, provider called %d times", fake.calls)
	}
	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("cached vector differs at [%d][%d]", i, j)
			}
		}
	}
}

func TestCached_PartialMissPreservesOrder(t *testing.T) {
	fake := &fakeEmbedder{}
	cache := newMemCache()
	cached := NewCached(fake, cache)

	if _, err := cached.Embed(context.Background(), []string{"seen"}); err != nil {
		t.Fatalf("Embed: %v", err)
	}

	out, err := cached.Embed(context.Background(), []string{"new text", "seen", "another"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(fake.lastBatch) != 2 {
		t.Fatalf("expected only 2 misses forwarded, got %v", fake.lastBatch)
	}
	// Vector length encodes the source text length in the fake.
	if out[0][0] != float32(len("new text")) {
		t.Errorf("position 0 not preserved: %v", out[0])
	}
	if out[1][0] != float32(len("seen")) {
		t.Errorf("position 1 not preserved: %v", out[1])
	}
	if out[2][0] != float32(len("another")) {
		t.Errorf("position 2 not preserved: %v", out[2])
	}
}

func TestCacheKey_ModelChangesKey(t *testing.T) {
	a := CacheKey("model-a", "same text")
	b := CacheKey("model-b", "same text")
	if a == b {
		t.Error("expected different models to produce different keys")
	}
	if a != CacheKey("model-a", "same text") {
		t.Error("expected stable keys")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if s := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(s-1) > 1e-9 {
		t.Errorf("identical vectors: got %f, want 1", s)
	}
	if s := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(s) > 1e-9 {
		t.Errorf("orthogonal vectors: got %f, want 0", s)
	}
	if s := CosineSimilarity([]float32{1, 0}, []float32{-1, 0}); math.Abs(s+1) > 1e-9 {
		t.Errorf("opposite vectors: got %f, want -1", s)
	}
	if s := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); s != 0 {
		t.Errorf("zero-norm vector: got %f, want 0", s)
	}
	if s := CosineSimilarity([]float32{1}, []float32{1, 0}); s != 0 {
		t.Errorf("length mismatch: got %f, want 0", s)
	}
}

func TestNearest(t *testing.T) {
	vectors := [][]float32{
		{1, 0},
		{0.9, 0.1},
		{0, 1},
	}
	idx, score := Nearest([]float32{1, 0}, vectors)
	if idx != 0 {
		t.Errorf("expected index 0, got %d", idx)
	}
	if math.Abs(score-1) > 1e-9 {
		t.Errorf("expected score 1, got %f", score)
	}

	idx, _ = Nearest([]float32{1, 0}, nil)
	if idx != -1 {
		t.Errorf("expected -1 for empty vectors, got %d", idx)
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"gemini", "ollama"} {
		e, err := New(name, Options{})
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if e.Model() == "" {
			t.Errorf("provider %q has empty default model", name)
		}
	}

	if _, err := New("nope", Options{}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
