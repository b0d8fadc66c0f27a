package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", "gemini-1.5-flash")
	c.SetBaseURL(srv.URL)
	return c
}

func candidateResponse(text string) string {
	// Gemini wraps the payload in candidates/content/parts.
	escaped := strings.ReplaceAll(text, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `{"candidates":[{"content":{"parts":[{"text":"` + escaped + `"}]}}]}`
}

func TestGenerateTopics_ParsesResponse(t *testing.T) {
	// Multi-line payload with tab indentation: every whitespace kind must
	// survive the candidate-response escaping.
	payload := "{\"topics\":[\n" +
		"\t{\"title\":\"Accident Timeline\",\"page\":3,\"line\":12,\"context\":\"When the collision occurred\",\"is_key_issue\":true,\"confidence\":0.9,\"related_topics\":[\"negligence\"]},\n" +
		"\t{\"title\":\"x\",\"page\":1,\"line\":1,\"confidence\":0.5}\n" +
		"]}"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(candidateResponse(payload)))
	})

	topics, err := c.GenerateTopics(context.Background(), "Page 1\nLine 1: testimony", 5)
	if err != nil {
		t.Fatalf("GenerateTopics: %v", err)
	}
	// The one-character title is dropped by validation.
	if len(topics) != 1 {
		t.Fatalf("expected 1 valid topic, got %d", len(topics))
	}
	if topics[0].Title != "Accident Timeline" {
		t.Errorf("unexpected title %q", topics[0].Title)
	}
	if !topics[0].IsKeyIssue {
		t.Error("expected is_key_issue true")
	}
}

func TestGenerateTopics_StripsCodeBlock(t *testing.T) {
	payload := "```json\n{\"topics\":[{\"title\":\"Medical History\",\"page\":2,\"line\":5,\"confidence\":0.8}]}\n```"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateResponse(payload)))
	})

	topics, err := c.GenerateTopics(context.Background(), "text", 3)
	if err != nil {
		t.Fatalf("GenerateTopics: %v", err)
	}
	if len(topics) != 1 || topics[0].Title != "Medical History" {
		t.Fatalf("unexpected topics %+v", topics)
	}
}

func TestGenerate_RetryableOn429(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota"}}`))
	})

	_, err := c.GenerateTopics(context.Background(), "text", 5)
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
	if re.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", re.StatusCode)
	}
}

func TestGenerate_RetryableOn500(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GenerateTopics(context.Background(), "text", 5)
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
}

func TestGenerate_NonRetryableOn400(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"bad request"}}`))
	})

	_, err := c.GenerateTopics(context.Background(), "text", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	var re *RetryableError
	if errors.As(err, &re) {
		t.Error("400 should not be retryable")
	}
}

func TestRefineClusters_ParsesResponse(t *testing.T) {
	payload := `{"clusters":[{"name":"Liability Questions","topics":["Accident Timeline"],"legal_theme":"negligence","key_issues":["speed"],"confidence":0.8,"representative_excerpt":"excerpt"}]}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-1.5-pro") {
			t.Errorf("cluster refinement should use the pro model, path %s", r.URL.Path)
		}
		w.Write([]byte(candidateResponse(payload)))
	})

	clusters, err := c.RefineClusters(context.Background(), []Topic{validTopic()}, 3)
	if err != nil {
		t.Fatalf("RefineClusters: %v", err)
	}
	if len(clusters) != 1 || clusters[0].Name != "Liability Questions" {
		t.Fatalf("unexpected clusters %+v", clusters)
	}
}

func TestRefineClusters_NoTopics(t *testing.T) {
	c := NewClient("key", "")
	clusters, err := c.RefineClusters(context.Background(), nil, 3)
	if err != nil {
		t.Fatalf("RefineClusters: %v", err)
	}
	if clusters != nil {
		t.Errorf("expected nil clusters for no topics")
	}
}

func TestEnhancedTOC_ReturnsMarkdown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateResponse("# Table of Contents\n\n## Liability\n- Accident Timeline (Page 3, Line 12)")))
	})

	toc, err := c.EnhancedTOC(context.Background(), []Topic{validTopic()})
	if err != nil {
		t.Fatalf("EnhancedTOC: %v", err)
	}
	if !strings.HasPrefix(toc, "# Table of Contents") {
		t.Errorf("unexpected toc %q", toc)
	}
}

func TestStripCodeBlock(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := stripCodeBlock(tc.in); got != tc.want {
			t.Errorf("stripCodeBlock(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClientRecordsStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateResponse(`{"topics":[]}`)))
	})

	if _, err := c.GenerateTopics(context.Background(), "text", 5); err != nil {
		t.Fatalf("GenerateTopics: %v", err)
	}
	snap := c.Stats.Snapshot()
	if snap.Count != 1 {
		t.Errorf("expected 1 recorded call, got %d", snap.Count)
	}
}
