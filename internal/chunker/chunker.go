package chunker

import (
	"strings"

	"github.com/depolab/depoindex/internal/transcript"
)

// Segment is a contiguous window of transcript lines, addressed by the
// page/line of its first and last line.
type Segment struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Page      int    `json:"page"`
	Line      int    `json:"line"`
	EndPage   int    `json:"end_page"`
	EndLine   int    `json:"end_line"`
	LineCount int    `json:"line_count"`
}

// Config controls segmentation behavior.
type Config struct {
	WindowLines  int // Number of transcript lines per segment.
	OverlapLines int // Lines shared between consecutive segments.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WindowLines:  3,
		OverlapLines: 0,
	}
}

// Split groups transcript lines into fixed-size windows, preserving the
// page/line address of the first and last line in each window.
func Split(t *transcript.Transcript, cfg Config) []Segment {
	if cfg.WindowLines <= 0 {
		cfg.WindowLines = 3
	}
	if cfg.OverlapLines < 0 || cfg.OverlapLines >= cfg.WindowLines {
		cfg.OverlapLines = 0
	}

	step := cfg.WindowLines - cfg.OverlapLines

	var segments []Segment
	for start := 0; start < len(t.Lines); start += step {
		end := start + cfg.WindowLines
		if end > len(t.Lines) {
			end = len(t.Lines)
		}
		window := t.Lines[start:end]

		var sb strings.Builder
		for i, l := range window {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(l.Text)
		}

		first, last := window[0], window[len(window)-1]
		segments = append(segments, Segment{
			Index:     len(segments),
			Text:      sb.String(),
			Page:      first.Page,
			Line:      first.Number,
			EndPage:   last.Page,
			EndLine:   last.Number,
			LineCount: len(window),
		})

		if end == len(t.Lines) {
			break
		}
	}
	return segments
}

// Texts returns the segment texts in order, for batch embedding.
func Texts(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Text
	}
	return out
}
