package index

import (
	"context"
	"testing"

	"github.com/depolab/depoindex/internal/chunker"
	"github.com/depolab/depoindex/internal/llm"
	"github.com/depolab/depoindex/internal/transcript"
)

func TestFromClusters(t *testing.T) {
	segments := []chunker.Segment{
		{Index: 0, Text: "first segment", Page: 1, Line: 1},
		{Index: 1, Text: "second segment", Page: 1, Line: 4},
		{Index: 2, Text: "third segment", Page: 2, Line: 1},
	}
	labels := []int{0, 1, 0}
	names := map[int]string{0: "Accident / Speed / Road", 1: "Medical / Injury / Treatment"}

	entries := FromClusters(segments, labels, names)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Topic != "Accident / Speed / Road" {
		t.Errorf("entry 0 topic = %q", entries[0].Topic)
	}
	if entries[1].Topic != "Medical / Injury / Treatment" {
		t.Errorf("entry 1 topic = %q", entries[1].Topic)
	}
	if entries[0].ChunkIndex != 1 || entries[2].ChunkIndex != 3 {
		t.Errorf("chunk indexes should be 1-based: %d, %d", entries[0].ChunkIndex, entries[2].ChunkIndex)
	}
	if entries[0].Source != SourceCluster {
		t.Errorf("expected cluster source, got %q", entries[0].Source)
	}
}

func TestFromClusters_MissingLabelFallsBack(t *testing.T) {
	segments := []chunker.Segment{{Text: "text", Page: 1, Line: 1}}
	entries := FromClusters(segments, []int{7}, map[int]string{0: "Real Topic"})
	if entries[0].Topic != "Untitled Topic" {
		t.Errorf("expected fallback title, got %q", entries[0].Topic)
	}
}

func TestFromTopics(t *testing.T) {
	topics := []llm.Topic{
		{Title: "Insurance Coverage", Page: 5, Line: 10, IsKeyIssue: true, Confidence: 0.9, Context: "policy limits"},
	}
	entries := FromTopics(topics)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Topic != "Insurance Coverage" || e.Page != 5 || e.Line != 10 {
		t.Errorf("unexpected entry %+v", e)
	}
	if !e.IsKeyIssue || e.Confidence != 0.9 || e.Source != SourceLLM {
		t.Errorf("unexpected entry metadata %+v", e)
	}
}

func TestFilterAndSort(t *testing.T) {
	entries := []Entry{
		{Topic: "C", Page: 2, Line: 1},
		{Topic: "A", Page: 1, Line: 5},
		{Topic: "", Page: 1, Line: 1},
		{Topic: "B", Page: 1, Line: 2},
		{Topic: "Bad", Page: 0, Line: 3},
	}
	out := FilterAndSort(entries)
	if len(out) != 3 {
		t.Fatalf("expected 3 valid entries, got %d", len(out))
	}
	want := []string{"B", "A", "C"}
	for i, topic := range want {
		if out[i].Topic != topic {
			t.Errorf("position %d: got %q, want %q", i, out[i].Topic, topic)
		}
	}
}

func TestFilterAndSort_StableWithinLocation(t *testing.T) {
	entries := []Entry{
		{Topic: "first", Page: 1, Line: 1},
		{Topic: "second", Page: 1, Line: 1},
	}
	out := FilterAndSort(entries)
	if out[0].Topic != "first" || out[1].Topic != "second" {
		t.Errorf("sort should be stable: %+v", out)
	}
}

func TestMerge_DeduplicatesByTopicAndLocation(t *testing.T) {
	a := []Entry{{Topic: "Speed Estimate", Page: 1, Line: 1}}
	b := []Entry{
		{Topic: "speed estimate", Page: 1, Line: 1},
		{Topic: "Speed Estimate", Page: 2, Line: 1},
	}
	out := Merge(a, b)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries after dedupe, got %d", len(out))
	}
	if out[1].Page != 2 {
		t.Errorf("expected the page-2 entry kept, got %+v", out[1])
	}
}

func TestHeuristic(t *testing.T) {
	tr := &transcript.Transcript{
		Lines: []transcript.Line{
			{Page: 1, Number: 1, Speaker: "MR. SMITH:", Text: "Can you state your name for the record, please?"},
			{Page: 1, Number: 2, Speaker: "", Text: "unattributed narration line"},
			{Page: 1, Number: 3, Speaker: "A.", Text: "John Doe."},
			{Page: 1, Number: 4, Speaker: "Q.", Text: "123 456"},
		},
	}
	entries := Heuristic(tr)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Topic != "Can you state your name for the" {
		t.Errorf("unexpected title %q", entries[0].Topic)
	}
	if entries[0].Source != SourceHeuristic {
		t.Errorf("expected heuristic source, got %q", entries[0].Source)
	}
	if entries[1].Topic != "John Doe" {
		t.Errorf("unexpected title %q", entries[1].Topic)
	}
}

func TestTitleFromText(t *testing.T) {
	if got := titleFromText("...!!!"); got != "Untitled Topic" {
		t.Errorf("punctuation-only text: got %q", got)
	}
	if got := titleFromText("one two"); got != "one two" {
		t.Errorf("short text: got %q", got)
	}
}

func TestAnnotate(t *testing.T) {
	entries := []Entry{
		{Topic: "B", Page: 2, Line: 1, Text: "later testimony"},
		{Topic: "A", Page: 1, Line: 1, Text: "  early testimony  "},
		{Topic: "NoText", Page: 1, Line: 2, Text: "   "},
	}
	sections := Annotate(entries)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Number != 1 || sections[0].Topic != "A" {
		t.Errorf("unexpected first section %+v", sections[0])
	}
	if sections[0].Text != "early testimony" {
		t.Errorf("expected trimmed text, got %q", sections[0].Text)
	}
	if sections[1].Number != 2 || sections[1].Topic != "B" {
		t.Errorf("unexpected second section %+v", sections[1])
	}
}

type stubEmbedder struct {
	vector []float32
}

func (s *stubEmbedder) Model() string { return "stub" }

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func TestLookup_Ask(t *testing.T) {
	vectors := [][]float32{
		{1, 0},
		{0, 1},
	}
	topics := []string{"Liability", "Damages"}
	lookup, err := NewLookup(&stubEmbedder{vector: []float32{0.1, 0.9}}, vectors, topics)
	if err != nil {
		t.Fatalf("NewLookup: %v", err)
	}

	topic, score, err := lookup.Ask(context.Background(), "how much were the damages")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if topic != "Damages" {
		t.Errorf("expected Damages, got %q", topic)
	}
	if score <= 0 {
		t.Errorf("expected positive similarity, got %f", score)
	}
}

func TestLookup_AskEmpty(t *testing.T) {
	lookup, err := NewLookup(&stubEmbedder{vector: []float32{1}}, nil, nil)
	if err != nil {
		t.Fatalf("NewLookup: %v", err)
	}
	topic, _, err := lookup.Ask(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if topic != UnknownTopic {
		t.Errorf("expected %q, got %q", UnknownTopic, topic)
	}
}

func TestLookup_LengthMismatch(t *testing.T) {
	_, err := NewLookup(&stubEmbedder{}, [][]float32{{1}}, nil)
	if err == nil {
		t.Error("expected error for mismatched lengths")
	}
}
