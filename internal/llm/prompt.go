package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Byte budget for transcript text sent with the topics prompt.
const topicsTextBudget = 10000

// BuildTopicsPrompt constructs the topic detection prompt.
func BuildTopicsPrompt(text string, n int) string {
	if len(text) > topicsTextBudget {
		// Back up to a rune boundary so the cut never splits a UTF-8 sequence.
		cut := topicsTextBudget
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return fmt.Sprintf(`Analyze this legal deposition transcript and identify %d key topics.
For each topic provide:
- A concise 3-5 word title
- Page and line references
- Whether it contains key legal issues
- Confidence score (0-1)
- Related legal concepts

Return in this JSON format:
{
    "topics": [
        {
            "title": "string",
            "page": int,
            "line": int,
            "context": "string",
            "is_key_issue": bool,
            "confidence": float,
            "related_topics": ["string"]
        }
    ]
}

Transcript:
%s`, n, text)
}

// BuildClusterPrompt constructs the cluster refinement prompt.
func BuildClusterPrompt(topics []Topic, maxClusters int) string {
	var sb strings.Builder
	for _, t := range topics {
		fmt.Fprintf(&sb, "- %s (page %d, line %d)", t.Title, t.Page, t.Line)
		if t.Context != "" {
			fmt.Fprintf(&sb, ": %s", t.Context)
		}
		sb.WriteByte('\n')
	}
	return fmt.Sprintf(`As a legal AI expert, analyze these deposition topics and group them into %d
semantically meaningful clusters based on:

1. Legal issues addressed
2. Factual patterns
3. Testimony type
4. Relevance to case theories

For each cluster provide:
- A concise name (3-5 words)
- List of member topics
- The primary legal theme
- 3-5 key issues covered
- Confidence score (0-1)
- A representative excerpt

Topics:
%s
Return JSON format:
{
    "clusters": [
        {
            "name": "string",
            "topics": ["list"],
            "legal_theme": "string",
            "key_issues": ["list"],
            "confidence": float,
            "representative_excerpt": "string"
        }
    ]
}`, maxClusters, sb.String())
}

// BuildTOCPrompt constructs the enhanced table-of-contents prompt.
func BuildTOCPrompt(topics []Topic) (string, error) {
	encoded, err := json.MarshalIndent(topics, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal topics: %w", err)
	}
	return fmt.Sprintf(`Create a professional table of contents for a legal deposition using these topics:
%s

Include:
- Logical section grouping
- Page/line references
- Key issue markers
- Hierarchical structure

Return in Markdown format with headings.`, encoded), nil
}
