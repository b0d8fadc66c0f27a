package chunker

import (
	"fmt"
	"testing"

	"github.com/depolab/depoindex/internal/transcript"
)

func makeTranscript(n int) *transcript.Transcript {
	t := &transcript.Transcript{Title: "test"}
	for i := range n {
		t.Lines = append(t.Lines, transcript.Line{
			Page:   i/25 + 1,
			Number: i%25 + 1,
			Text:   fmt.Sprintf("line %d text", i+1),
		})
	}
	return t
}

func TestSplit_WindowsOfThree(t *testing.T) {
	ts := makeTranscript(9)
	segs := Split(ts, Config{WindowLines: 3})

	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[0].Page != 1 || segs[0].Line != 1 {
		t.Errorf("segment 0 should start at page 1 line 1, got %d/%d", segs[0].Page, segs[0].Line)
	}
	if segs[1].Line != 4 {
		t.Errorf("segment 1 should start at line 4, got %d", segs[1].Line)
	}
	if segs[0].Text != "line 1 text line 2 text line 3 text" {
		t.Errorf("unexpected joined text: %q", segs[0].Text)
	}
	for i, s := range segs {
		if s.Index != i {
			t.Errorf("segment %d has index %d", i, s.Index)
		}
	}
}

func TestSplit_PartialTail(t *testing.T) {
	ts := makeTranscript(7)
	segs := Split(ts, Config{WindowLines: 3})

	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	last := segs[2]
	if last.LineCount != 1 {
		t.Errorf("expected tail segment of 1 line, got %d", last.LineCount)
	}
	if last.Line != 7 || last.EndLine != 7 {
		t.Errorf("tail segment should cover line 7, got %d..%d", last.Line, last.EndLine)
	}
}

func TestSplit_CoversEveryLine(t *testing.T) {
	ts := makeTranscript(53)
	segs := Split(ts, Config{WindowLines: 4})

	total := 0
	for _, s := range segs {
		total += s.LineCount
	}
	if total != 53 {
		t.Errorf("expected segments to cover 53 lines, covered %d", total)
	}
}

func TestSplit_Overlap(t *testing.T) {
	ts := makeTranscript(10)
	segs := Split(ts, Config{WindowLines: 4, OverlapLines: 2})

	if segs[1].Line != 3 {
		t.Errorf("with overlap 2, segment 1 should start at line 3, got %d", segs[1].Line)
	}
	// Step is 2, so segments start at lines 1, 3, 5, 7. The window from
	// line 7 reaches the end, so no further segment is emitted.
	if len(segs) != 4 {
		t.Errorf("expected 4 segments, got %d", len(segs))
	}
	last := segs[len(segs)-1]
	if last.Line != 7 || last.EndLine != 10 {
		t.Errorf("last segment should cover lines 7..10, got %d..%d", last.Line, last.EndLine)
	}
}

func TestSplit_FewerLinesThanWindow(t *testing.T) {
	ts := makeTranscript(2)
	segs := Split(ts, Config{WindowLines: 5})

	if len(segs) != 1 {
		t.Fatalf("expected single segment, got %d", len(segs))
	}
	if segs[0].EndLine != 2 {
		t.Errorf("expected end line 2, got %d", segs[0].EndLine)
	}
}

func TestSplit_Empty(t *testing.T) {
	segs := Split(&transcript.Transcript{}, DefaultConfig())
	if len(segs) != 0 {
		t.Errorf("expected no segments, got %d", len(segs))
	}
}

func TestSplit_CrossPageBoundary(t *testing.T) {
	ts := makeTranscript(26) // pages 1 and 2
	segs := Split(ts, Config{WindowLines: 3})

	// Lines 25..26 span the page boundary; find the segment starting at line 25.
	var found bool
	for _, s := range segs {
		if s.Page == 1 && s.Line == 25 {
			found = true
			if s.EndPage != 2 || s.EndLine != 1 {
				t.Errorf("expected end at page 2 line 1, got %d/%d", s.EndPage, s.EndLine)
			}
		}
	}
	if !found {
		t.Error("no segment starting at page 1 line 25")
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("empty text should estimate 0 tokens")
	}
	if got := EstimateTokens("one two three four"); got < 4 || got > 6 {
		t.Errorf("4 words should estimate ~5 tokens, got %d", got)
	}
}
