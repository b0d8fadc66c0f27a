package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// Half-point font sizes for DOCX headings.
const (
	sizeTitle    = "44"
	sizeHeading1 = "36"
	sizeHeading2 = "30"
	sizeHeading3 = "26"
)

// DOCXFormatter renders the Document as a Word file: title page, table of
// contents, annotated sections, and optionally the full transcript.
type DOCXFormatter struct{}

// NewDOCXFormatter creates a new DOCXFormatter.
func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (f *DOCXFormatter) Extension() string { return ".docx" }

func (f *DOCXFormatter) Format(doc *Document) ([]byte, error) {
	w := docx.New().WithDefaultTheme()

	w.AddParagraph().AddText("DEPOSITION TRANSCRIPT").Size(sizeTitle).Bold()
	if doc.Title != "" {
		w.AddParagraph().AddText(doc.Title)
	}
	if doc.TOC != nil && len(doc.TOC.Entries) > 0 {
		last := doc.TOC.Entries[len(doc.TOC.Entries)-1]
		w.AddParagraph().AddText(fmt.Sprintf("Total Pages: %d", last.Page))
	}
	w.AddParagraph()

	w.AddParagraph().AddText("TABLE OF CONTENTS").Size(sizeHeading1).Bold()
	if doc.TOC != nil {
		if doc.TOC.EnhancedMarkdown != "" {
			writeMarkdownTOC(w, doc.TOC.EnhancedMarkdown)
		} else {
			for _, e := range doc.TOC.Entries {
				w.AddParagraph().AddText(fmt.Sprintf("• %s · Page %d · Line %d", e.Topic, e.Page, e.Line))
			}
		}
	}

	if len(doc.Sections) > 0 {
		w.AddParagraph()
		w.AddParagraph().AddText("Annotated Full Transcript").Size(sizeHeading1).Bold()
		for _, s := range doc.Sections {
			w.AddParagraph().AddText(fmt.Sprintf("%d. %s", s.Number, s.Topic)).Size(sizeHeading2).Bold()
			w.AddParagraph().AddText(fmt.Sprintf("(Page %d · Line %d)", s.Page, s.Line))
			w.AddParagraph().AddText(strings.TrimSpace(s.Text))
		}
	}

	if len(doc.Transcript) > 0 {
		w.AddParagraph()
		w.AddParagraph().AddText("FULL TRANSCRIPT").Size(sizeHeading1).Bold()
		for _, line := range doc.Transcript {
			if strings.TrimSpace(line) == "" {
				continue
			}
			w.AddParagraph().AddText(line)
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

// writeMarkdownTOC converts model-generated Markdown into DOCX paragraphs.
// Headings map to sized bold paragraphs, list markers are normalized to
// bullets, and **bold** spans become bold runs.
func writeMarkdownTOC(w *docx.Docx, md string) {
	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			level := strings.IndexFunc(line, func(r rune) bool { return r != '#' })
			if level < 0 {
				continue
			}
			if level > 3 {
				level = 3
			}
			text := strings.TrimSpace(strings.TrimLeft(line, "#"))
			size := sizeHeading1
			switch level {
			case 2:
				size = sizeHeading2
			case 3:
				size = sizeHeading3
			}
			w.AddParagraph().AddText(text).Size(size).Bold()
			continue
		}

		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			writeRuns(w, "• "+line[2:])
			continue
		}
		writeRuns(w, line)
	}
}

// writeRuns adds one paragraph, turning **spans** into bold runs.
func writeRuns(w *docx.Docx, line string) {
	para := w.AddParagraph()
	parts := strings.Split(line, "**")
	for i, part := range parts {
		if part == "" {
			continue
		}
		run := para.AddText(part)
		// Odd-indexed parts were inside ** markers.
		if i%2 == 1 {
			run.Bold()
		}
	}
}
