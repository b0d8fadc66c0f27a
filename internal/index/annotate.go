package index

import "strings"

// Section is one numbered block of the annotated transcript.
type Section struct {
	Number int    `json:"number"`
	Topic  string `json:"topic"`
	Page   int    `json:"page"`
	Line   int    `json:"line"`
	Text   string `json:"text"`
}

// Annotate turns entries into numbered annotated-transcript sections.
// Entries without text are skipped; the rest are ordered by location.
func Annotate(entries []Entry) []Section {
	sorted := FilterAndSort(entries)
	var sections []Section
	for _, e := range sorted {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		sections = append(sections, Section{
			Number: len(sections) + 1,
			Topic:  e.Topic,
			Page:   e.Page,
			Line:   e.Line,
			Text:   text,
		})
	}
	return sections
}
