package llm

import (
	"regexp"
	"strings"
)

// Topic is one model-identified deposition topic anchored to a transcript
// location.
type Topic struct {
	Title         string   `json:"title"`
	Page          int      `json:"page"`
	Line          int      `json:"line"`
	Context       string   `json:"context,omitempty"`
	IsKeyIssue    bool     `json:"is_key_issue"`
	Confidence    float64  `json:"confidence"`
	RelatedTopics []string `json:"related_topics,omitempty"`
}

// ClusterSummary groups related topics under a legal theme.
type ClusterSummary struct {
	Name                  string   `json:"name"`
	Topics                []string `json:"topics"`
	LegalTheme            string   `json:"legal_theme,omitempty"`
	KeyIssues             []string `json:"key_issues,omitempty"`
	Confidence            float64  `json:"confidence"`
	RepresentativeExcerpt string   `json:"representative_excerpt,omitempty"`
}

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// ValidateTopic checks a model-produced topic and normalizes its fields in
// place. Returns false if the topic should be dropped.
func ValidateTopic(t *Topic) bool {
	if t == nil {
		return false
	}
	t.Title = strings.TrimSpace(t.Title)
	if len(t.Title) < 3 || len(t.Title) > 200 {
		return false
	}
	if injectionPattern.MatchString(t.Title) || injectionPattern.MatchString(t.Context) {
		return false
	}
	// Page and line references come back as zero or negative when the model
	// could not locate the topic; clamp to the start of the transcript.
	if t.Page < 1 {
		t.Page = 1
	}
	if t.Line < 1 {
		t.Line = 1
	}
	if t.Confidence <= 0 || t.Confidence > 1.0 {
		t.Confidence = 0.7
	}
	if len(t.Context) > 500 {
		t.Context = t.Context[:500]
	}
	if len(t.RelatedTopics) > 5 {
		t.RelatedTopics = t.RelatedTopics[:5]
	}
	return true
}

func clampClusterSummary(c *ClusterSummary) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = "Miscellaneous"
	}
	if c.Confidence <= 0 || c.Confidence > 1.0 {
		c.Confidence = 0.7
	}
	if len(c.KeyIssues) > 5 {
		c.KeyIssues = c.KeyIssues[:5]
	}
	if len(c.RepresentativeExcerpt) > 500 {
		c.RepresentativeExcerpt = c.RepresentativeExcerpt[:500]
	}
}
