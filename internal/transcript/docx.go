package transcript

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXReader handles .docx transcripts. Each paragraph becomes one or more
// transcript lines; page numbers are synthesized since DOCX carries no fixed
// pagination.
type DOCXReader struct{}

func (p *DOCXReader) Read(r io.Reader, filename string) (*Transcript, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "depoindex-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, int64(size))
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var rawLines []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		rawLines = append(rawLines, strings.Split(text, "\n")...)
	}

	t := &Transcript{Title: titleFromFilename(filename)}
	if hasPageMarkers(rawLines) {
		t.Lines = parseStructured(rawLines)
	} else {
		t.Lines = parseRaw(rawLines)
	}

	if len(t.Lines) == 0 {
		return nil, fmt.Errorf("transcript %q contains no text", filename)
	}
	return t, nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
