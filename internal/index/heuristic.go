package index

import (
	"regexp"
	"strings"

	"github.com/depolab/depoindex/internal/transcript"
)

const heuristicTitleWords = 7

var (
	letterRe = regexp.MustCompile(`[a-zA-Z]`)
	punctRe  = regexp.MustCompile(`[^\w\s]`)
)

// Heuristic builds topic entries without any model: every spoken line that
// carries a speaker attribution becomes an entry titled by its first few
// words. Used when clustering cannot run and the LLM is unavailable.
func Heuristic(t *transcript.Transcript) []Entry {
	var entries []Entry
	for _, line := range t.Lines {
		if line.Speaker == "" {
			continue
		}
		if !letterRe.MatchString(line.Text) {
			continue
		}
		entries = append(entries, Entry{
			Topic:  titleFromText(line.Text),
			Page:   line.Page,
			Line:   line.Number,
			Text:   strings.TrimSpace(line.Speaker + " " + line.Text),
			Source: SourceHeuristic,
		})
	}
	return entries
}

// titleFromText takes the first words of a line, stripped of punctuation.
func titleFromText(s string) string {
	cleaned := punctRe.ReplaceAllString(s, "")
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return "Untitled Topic"
	}
	if len(words) > heuristicTitleWords {
		words = words[:heuristicTitleWords]
	}
	return strings.Join(words, " ")
}
