package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depolab/depoindex/internal/embed"
	"github.com/depolab/depoindex/internal/index"
)

var _ embed.Cache = (*Store)(nil)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() *Run {
	return &Run{
		ID:           "run-1",
		Title:        "Deposition of John Doe",
		SourceFile:   "transcript.txt",
		Status:       "completed",
		LLMUsed:      true,
		SegmentCount: 12,
		TOC: &index.TOC{
			Title: "Deposition of John Doe",
			Entries: []index.Entry{
				{Topic: "Accident / Speed / Road", Page: 1, Line: 1, Source: index.SourceCluster},
			},
		},
		Sections: []index.Section{
			{Number: 1, Topic: "Accident / Speed / Road", Page: 1, Line: 1, Text: "Q. How fast?"},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveRun(sampleRun()))

	got, err := s.GetRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Deposition of John Doe", got.Title)
	assert.Equal(t, "completed", got.Status)
	assert.True(t, got.LLMUsed)
	assert.Equal(t, 12, got.SegmentCount)
	require.NotNil(t, got.TOC)
	require.Len(t, got.TOC.Entries, 1)
	assert.Equal(t, "Accident / Speed / Road", got.TOC.Entries[0].Topic)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "Q. How fast?", got.Sections[0].Text)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestFindRunByHash(t *testing.T) {
	s := newTestStore(t)

	run := sampleRun()
	run.ContentHash = "abc123"
	require.NoError(t, s.SaveRun(run))

	id, err := s.FindRunByHash("abc123")
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)

	id, err = s.FindRunByHash("missing")
	require.NoError(t, err)
	assert.Empty(t, id)

	// An empty hash never matches.
	id, err = s.FindRunByHash("")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestGetRun_Missing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetRun("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveRun_Replaces(t *testing.T) {
	s := newTestStore(t)

	run := sampleRun()
	require.NoError(t, s.SaveRun(run))

	run.Status = "partial"
	require.NoError(t, s.SaveRun(run))

	got, err := s.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "partial", got.Status)

	runs, err := s.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)

	a := sampleRun()
	b := sampleRun()
	b.ID = "run-2"
	b.Title = "Deposition of Jane Roe"
	require.NoError(t, s.SaveRun(a))
	require.NoError(t, s.SaveRun(b))

	runs, err := s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Listings carry summaries only.
	assert.NotEmpty(t, runs[0].Title)
}

func TestDeleteRun(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveRun(sampleRun()))
	require.NoError(t, s.SaveVectors("run-1", []string{"Topic"}, [][]float32{{1, 2}}))

	require.NoError(t, s.DeleteRun("run-1"))

	got, err := s.GetRun("run-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	topics, vectors, err := s.GetVectors("run-1")
	require.NoError(t, err)
	assert.Empty(t, topics)
	assert.Empty(t, vectors)

	// Deleting again is a no-op.
	assert.NoError(t, s.DeleteRun("run-1"))
}

func TestSaveAndGetVectors(t *testing.T) {
	s := newTestStore(t)

	topics := []string{"Liability", "Damages"}
	vectors := [][]float32{
		{0.5, -1.25, 3},
		{1, 0, -0.001},
	}
	require.NoError(t, s.SaveVectors("run-1", topics, vectors))

	gotTopics, gotVectors, err := s.GetVectors("run-1")
	require.NoError(t, err)
	assert.Equal(t, topics, gotTopics)
	assert.Equal(t, vectors, gotVectors)
}

func TestSaveVectors_LengthMismatch(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveVectors("run-1", []string{"a"}, nil)
	assert.Error(t, err)
}

func TestSaveVectors_ReplacesExisting(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveVectors("run-1", []string{"Old"}, [][]float32{{1}}))
	require.NoError(t, s.SaveVectors("run-1", []string{"New A", "New B"}, [][]float32{{2}, {3}}))

	topics, vectors, err := s.GetVectors("run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"New A", "New B"}, topics)
	assert.Len(t, vectors, 2)
}

func TestEmbeddingCache(t *testing.T) {
	s := newTestStore(t)

	key := embed.CacheKey("text-embedding-004", "some chunk text")

	_, ok, err := s.GetVector(key)
	require.NoError(t, err)
	assert.False(t, ok)

	vec := []float32{0.25, -0.5, 1.5}
	require.NoError(t, s.PutVector(key, "text-embedding-004", vec))

	got, ok, err := s.GetVector(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vec, got)

	// Replacing an entry is allowed.
	require.NoError(t, s.PutVector(key, "text-embedding-004", []float32{9}))
	got, ok, err = s.GetVector(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{9}, got)
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0, 1, -1, 0.333, 1e10, -1e-10}
	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}

func TestDecodeVector_BadLength(t *testing.T) {
	_, err := decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
