package export

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders the TOC and annotated transcript as Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (f *MarkdownFormatter) Extension() string { return ".md" }

// Format renders the Document as Markdown: the TOC bullet list first, then
// the numbered annotated sections.
func (f *MarkdownFormatter) Format(doc *Document) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Deposition Topic Table of Contents\n\n")
	if doc.Title != "" {
		fmt.Fprintf(&b, "**%s**\n\n", doc.Title)
	}

	if doc.TOC != nil {
		if doc.TOC.EnhancedMarkdown != "" {
			b.WriteString(doc.TOC.EnhancedMarkdown)
			b.WriteString("\n\n")
		}
		for _, e := range doc.TOC.Entries {
			fmt.Fprintf(&b, "- **%s** · Page %d · Line %d\n", e.Topic, e.Page, e.Line)
		}
		if len(doc.TOC.Clusters) > 0 {
			b.WriteString("\n## Topic Clusters\n\n")
			for _, c := range doc.TOC.Clusters {
				fmt.Fprintf(&b, "### %s\n\n", c.Name)
				if c.LegalTheme != "" {
					fmt.Fprintf(&b, "*Legal theme: %s*\n\n", c.LegalTheme)
				}
				for _, topic := range c.Topics {
					fmt.Fprintf(&b, "- %s\n", topic)
				}
				b.WriteString("\n")
			}
		}
	}

	if len(doc.Sections) > 0 {
		b.WriteString("\n# Annotated Full Transcript\n\n")
		for _, s := range doc.Sections {
			fmt.Fprintf(&b, "## %d. %s\n", s.Number, s.Topic)
			fmt.Fprintf(&b, "*(Page %d · Line %d)*\n\n", s.Page, s.Line)
			b.WriteString(strings.TrimSpace(s.Text))
			b.WriteString("\n\n")
		}
	}

	return []byte(b.String()), nil
}
