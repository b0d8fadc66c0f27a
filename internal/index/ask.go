package index

import (
	"context"
	"fmt"

	"github.com/depolab/depoindex/internal/embed"
)

// UnknownTopic is returned when no embeddings exist to match against.
const UnknownTopic = "Unknown"

// Lookup answers nearest-topic queries over the segment embeddings of a
// completed analysis.
type Lookup struct {
	embedder embed.Embedder
	vectors  [][]float32
	topics   []string
}

// NewLookup pairs segment vectors with their assigned topic names.
// vectors[i] must correspond to topics[i].
func NewLookup(embedder embed.Embedder, vectors [][]float32, topics []string) (*Lookup, error) {
	if len(vectors) != len(topics) {
		return nil, fmt.Errorf("vectors/topics length mismatch: %d vs %d", len(vectors), len(topics))
	}
	return &Lookup{
		embedder: embedder,
		vectors:  vectors,
		topics:   topics,
	}, nil
}

// Ask embeds the question and returns the topic of the most similar
// segment with its cosine similarity. Returns UnknownTopic when the lookup
// holds no vectors.
func (l *Lookup) Ask(ctx context.Context, question string) (string, float64, error) {
	if len(l.vectors) == 0 {
		return UnknownTopic, 0, nil
	}
	qv, err := l.embedder.Embed(ctx, []string{question})
	if err != nil {
		return "", 0, fmt.Errorf("embed question: %w", err)
	}
	if len(qv) != 1 {
		return "", 0, fmt.Errorf("expected 1 query vector, got %d", len(qv))
	}
	i, score := embed.Nearest(qv[0], l.vectors)
	if i < 0 {
		return UnknownTopic, 0, nil
	}
	return l.topics[i], score, nil
}
