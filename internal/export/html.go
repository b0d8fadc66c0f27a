package export

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTMLFormatter renders the Document as a standalone HTML page by
// converting the Markdown rendering.
type HTMLFormatter struct {
	md       goldmark.Markdown
	markdown *MarkdownFormatter
}

// NewHTMLFormatter creates a new HTMLFormatter.
func NewHTMLFormatter() *HTMLFormatter {
	return &HTMLFormatter{
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		markdown: NewMarkdownFormatter(),
	}
}

func (f *HTMLFormatter) Extension() string { return ".html" }

func (f *HTMLFormatter) Format(doc *Document) ([]byte, error) {
	src, err := f.markdown.Format(doc)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := f.md.Convert(src, &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	title := doc.Title
	if title == "" {
		title = "Deposition Analysis"
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	page.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("<style>body{font-family:Georgia,serif;max-width:48rem;margin:2rem auto;padding:0 1rem;line-height:1.5}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	return page.Bytes(), nil
}
