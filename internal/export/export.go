// Package export renders analysis results as Markdown, JSON, HTML, and
// DOCX documents.
package export

import (
	"fmt"

	"github.com/depolab/depoindex/internal/index"
)

// Document is everything an exporter may render: the table of contents,
// the annotated sections, and optionally the raw transcript lines for
// full-transcript output.
type Document struct {
	Title      string          `json:"title"`
	TOC        *index.TOC      `json:"toc"`
	Sections   []index.Section `json:"sections,omitempty"`
	Transcript []string        `json:"-"`
}

// Formatter renders a Document into output bytes.
type Formatter interface {
	Format(doc *Document) ([]byte, error)
	Extension() string
}

// Formats supported by New.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatHTML     = "html"
	FormatDOCX     = "docx"
)

// New returns the formatter for a format name.
func New(format string) (Formatter, error) {
	switch format {
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatHTML:
		return NewHTMLFormatter(), nil
	case FormatDOCX:
		return NewDOCXFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
