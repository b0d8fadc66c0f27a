// Package index assembles the deposition table of contents from cluster
// labels, model-generated topics, and the heuristic fallback, and answers
// "what topic covers this question" lookups over segment embeddings.
package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/depolab/depoindex/internal/chunker"
	"github.com/depolab/depoindex/internal/llm"
)

// Entry sources.
const (
	SourceCluster   = "cluster"
	SourceLLM       = "llm"
	SourceHeuristic = "heuristic"
)

// Entry is one table-of-contents row anchored to a transcript location.
type Entry struct {
	ChunkIndex int     `json:"chunk_index,omitempty"`
	Topic      string  `json:"topic"`
	Page       int     `json:"page"`
	Line       int     `json:"line"`
	Text       string  `json:"text,omitempty"`
	IsKeyIssue bool    `json:"is_key_issue,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Source     string  `json:"source"`
}

// TOC is the complete analysis result for one transcript.
type TOC struct {
	Title            string               `json:"title"`
	Entries          []Entry              `json:"entries"`
	Clusters         []llm.ClusterSummary `json:"clusters,omitempty"`
	EnhancedMarkdown string               `json:"enhanced_toc,omitempty"`
}

// FromClusters builds one entry per segment carrying its cluster's label.
// labels[i] is the cluster of segments[i]; names maps cluster id to label.
func FromClusters(segments []chunker.Segment, labels []int, names map[int]string) []Entry {
	entries := make([]Entry, 0, len(segments))
	for i, seg := range segments {
		name := "Untitled Topic"
		if i < len(labels) {
			if n, ok := names[labels[i]]; ok && n != "" {
				name = n
			}
		}
		entries = append(entries, Entry{
			ChunkIndex: i + 1,
			Topic:      name,
			Page:       seg.Page,
			Line:       seg.Line,
			Text:       seg.Text,
			Source:     SourceCluster,
		})
	}
	return entries
}

// FromTopics converts model-generated topics into entries.
func FromTopics(topics []llm.Topic) []Entry {
	entries := make([]Entry, 0, len(topics))
	for _, t := range topics {
		entries = append(entries, Entry{
			Topic:      t.Title,
			Page:       t.Page,
			Line:       t.Line,
			Text:       t.Context,
			IsKeyIssue: t.IsKeyIssue,
			Confidence: t.Confidence,
			Source:     SourceLLM,
		})
	}
	return entries
}

// FilterAndSort drops entries without a usable page/line anchor and orders
// the rest by (page, line). The input slice is not modified.
func FilterAndSort(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Page < 1 || e.Line < 1 || strings.TrimSpace(e.Topic) == "" {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// Merge combines entry lists, dropping later entries that duplicate an
// earlier one's topic at the same location.
func Merge(lists ...[]Entry) []Entry {
	seen := make(map[string]bool)
	var out []Entry
	for _, list := range lists {
		for _, e := range list {
			key := dedupeKey(e)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, e)
		}
	}
	return out
}

func dedupeKey(e Entry) string {
	return fmt.Sprintf("%s\x00%d\x00%d", strings.ToLower(strings.TrimSpace(e.Topic)), e.Page, e.Line)
}
