package transcript

import "strings"

// Line is a single transcript line addressed by page and line number.
type Line struct {
	Page    int    // 1-based page number
	Number  int    // 1-based line number within the page
	Speaker string // Detected speaker designation (may be empty)
	Text    string // Line text with the speaker prefix removed
}

// Transcript is a parsed deposition transcript.
type Transcript struct {
	Title string
	Lines []Line
}

// PageCount returns the highest page number seen in the transcript.
func (t *Transcript) PageCount() int {
	max := 0
	for _, l := range t.Lines {
		if l.Page > max {
			max = l.Page
		}
	}
	return max
}

// FullText joins all line text with newlines. Speaker prefixes are
// re-attached so the result reads like the source transcript.
func (t *Transcript) FullText() string {
	var sb strings.Builder
	for i, l := range t.Lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		if l.Speaker != "" {
			sb.WriteString(l.Speaker)
			sb.WriteString(" ")
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}
