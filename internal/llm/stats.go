package llm

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at time.Time
	ms int64
}

// StatsSnapshot is a point-in-time aggregate of API call latencies.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// CallStats tracks recent Gemini call latencies within a rolling window.
type CallStats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []sample
}

func NewCallStats(window time.Duration) *CallStats {
	if window <= 0 {
		window = time.Hour
	}
	return &CallStats{window: window}
}

func (s *CallStats) Record(durationMs int64) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evict(now)
	s.samples = append(s.samples, sample{at: now, ms: max(durationMs, 0)})
}

func (s *CallStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evict(time.Now())
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	ms := make([]int64, len(s.samples))
	var total int64
	for i, sm := range s.samples {
		ms[i] = sm.ms
		total += sm.ms
	}
	slices.Sort(ms)

	return StatsSnapshot{
		Count: len(ms),
		MinMs: ms[0],
		MaxMs: ms[len(ms)-1],
		AvgMs: float64(total) / float64(len(ms)),
		P50Ms: percentile(ms, 50),
		P95Ms: percentile(ms, 95),
		P99Ms: percentile(ms, 99),
	}
}

// evict drops samples that fell out of the rolling window. Samples arrive in
// time order, so only a leading prefix can have expired.
func (s *CallStats) evict(now time.Time) {
	cutoff := now.Add(-s.window)
	n := 0
	for n < len(s.samples) && s.samples[n].at.Before(cutoff) {
		n++
	}
	if n > 0 {
		s.samples = append(s.samples[:0], s.samples[n:]...)
	}
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	pos := pct / 100 * float64(len(sorted)-1)
	i := int(pos)
	frac := pos - float64(i)
	if frac == 0 || i+1 >= len(sorted) {
		return float64(sorted[i])
	}
	return float64(sorted[i])*(1-frac) + float64(sorted[i+1])*frac
}
