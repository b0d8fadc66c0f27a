package transcript

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Court reporters commonly format 25 lines to a page; used to synthesize
// page numbers when the source carries no page markers.
const linesPerPage = 25

var (
	pageMarkerRe = regexp.MustCompile(`^Page\s+(\d+)\s*$`)
	lineMarkerRe = regexp.MustCompile(`^Line\s+(\d+):\s+(.*)$`)

	speakerRe = regexp.MustCompile(
		`^((?:BY\s+)?(?:MR|MS|MRS|DR)\.?\s+[A-Z][A-Za-z.'-]*\s*:|` +
			`THE\s+(?:WITNESS|COURT|VIDEOGRAPHER|REPORTER)\s*:|` +
			`[QA][.:])\s*`,
	)
)

// TextReader handles plain-text transcripts. It understands the structured
// "Page N" / "Line N: text" layout and falls back to treating each non-blank
// line as a transcript line when no markers are present.
type TextReader struct{}

func (p *TextReader) Read(r io.Reader, filename string) (*Transcript, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var rawLines []string
	for scanner.Scan() {
		rawLines = append(rawLines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
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

func hasPageMarkers(lines []string) bool {
	for _, l := range lines {
		if lineMarkerRe.MatchString(strings.TrimSpace(l)) {
			return true
		}
	}
	return false
}

// parseStructured handles the "Page N" / "Line N: text" layout. Lines seen
// before any page marker belong to page 1.
func parseStructured(raw []string) []Line {
	var lines []Line
	currentPage := 1

	for _, l := range raw {
		trimmed := strings.TrimSpace(l)
		if m := pageMarkerRe.FindStringSubmatch(trimmed); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				currentPage = n
			}
			continue
		}
		if m := lineMarkerRe.FindStringSubmatch(trimmed); m != nil {
			num, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			speaker, text := splitSpeaker(strings.TrimSpace(m[2]))
			if text == "" && speaker == "" {
				continue
			}
			lines = append(lines, Line{
				Page:    currentPage,
				Number:  num,
				Speaker: speaker,
				Text:    text,
			})
		}
	}
	return lines
}

// parseRaw treats every non-blank line as a transcript line, synthesizing
// page/line numbers at linesPerPage lines per page.
func parseRaw(raw []string) []Line {
	var lines []Line
	idx := 0
	for _, l := range raw {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}
		// Skip lines that are pure numbering or page headers.
		if pageMarkerRe.MatchString(trimmed) || isNumericJunk(trimmed) {
			continue
		}
		speaker, text := splitSpeaker(trimmed)
		lines = append(lines, Line{
			Page:    idx/linesPerPage + 1,
			Number:  idx%linesPerPage + 1,
			Speaker: speaker,
			Text:    text,
		})
		idx++
	}
	return lines
}

// splitSpeaker separates a leading speaker designation ("MR. SMITH:",
// "THE WITNESS:", "Q.") from the spoken text.
func splitSpeaker(s string) (speaker, text string) {
	if m := speakerRe.FindStringSubmatch(s); m != nil {
		speaker = strings.TrimSpace(m[1])
		text = strings.TrimSpace(s[len(m[0]):])
		return speaker, text
	}
	return "", s
}

var numericJunkRe = regexp.MustCompile(`^[0-9 ·.-]+$`)

func isNumericJunk(s string) bool {
	return numericJunkRe.MatchString(s)
}
