package llm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildTopicsPrompt_IncludesText(t *testing.T) {
	p := BuildTopicsPrompt("Page 1\nLine 1: testimony", 5)
	if !strings.Contains(p, "identify 5 key topics") {
		t.Error("prompt should carry the requested topic count")
	}
	if !strings.Contains(p, "Line 1: testimony") {
		t.Error("prompt should carry the transcript text")
	}
}

func TestBuildTopicsPrompt_TruncatesOnRuneBoundary(t *testing.T) {
	// Place a multi-byte rune straddling the byte budget; the truncation
	// must back up instead of emitting a partial UTF-8 sequence.
	text := strings.Repeat("a", topicsTextBudget-1) + "é" + strings.Repeat("b", 50)
	p := BuildTopicsPrompt(text, 3)

	if !utf8.ValidString(p) {
		t.Fatal("truncated prompt is not valid UTF-8")
	}
	if strings.Contains(p, "bbbb") {
		t.Error("text past the budget should be dropped")
	}
	if strings.Contains(p, "é") {
		t.Error("the straddling rune should be dropped, not split")
	}
}

func TestBuildTopicsPrompt_ShortTextUntouched(t *testing.T) {
	p := BuildTopicsPrompt("short text", 3)
	if !strings.Contains(p, "short text") {
		t.Error("short text should pass through unmodified")
	}
}
