package llm

import (
	"testing"
	"time"
)

func TestCallStats_EmptySnapshot(t *testing.T) {
	s := NewCallStats(time.Hour)
	snap := s.Snapshot()
	if snap.Count != 0 {
		t.Errorf("expected empty snapshot, got count %d", snap.Count)
	}
}

func TestCallStats_Aggregates(t *testing.T) {
	s := NewCallStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		s.Record(ms)
	}

	snap := s.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected 5 samples, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Errorf("expected min 100 max 500, got %d/%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Errorf("expected avg 300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Errorf("expected p50 300, got %f", snap.P50Ms)
	}
}

func TestCallStats_NegativeClampedToZero(t *testing.T) {
	s := NewCallStats(time.Hour)
	s.Record(-50)
	snap := s.Snapshot()
	if snap.MinMs != 0 {
		t.Errorf("expected negative duration clamped to 0, got %d", snap.MinMs)
	}
}

func TestCallStats_WindowPrunesOldSamples(t *testing.T) {
	s := NewCallStats(10 * time.Millisecond)
	s.Record(100)
	time.Sleep(25 * time.Millisecond)
	s.Record(200)

	snap := s.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected old sample pruned, got count %d", snap.Count)
	}
	if snap.MinMs != 200 {
		t.Errorf("expected remaining sample 200, got %d", snap.MinMs)
	}
}

func TestPercentile(t *testing.T) {
	values := []int64{10, 20, 30, 40}
	if got := percentile(values, 0); got != 10 {
		t.Errorf("p0 = %f, want 10", got)
	}
	if got := percentile(values, 100); got != 40 {
		t.Errorf("p100 = %f, want 40", got)
	}
	if got := percentile(values, 50); got != 25 {
		t.Errorf("p50 = %f, want 25", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("empty percentile = %f, want 0", got)
	}
}
