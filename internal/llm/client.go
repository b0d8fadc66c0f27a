// Package llm calls the Gemini generateContent API for topic detection,
// semantic cluster refinement, and table-of-contents generation. The client
// is optional: every caller must tolerate a nil *Client and fall back to
// heuristic output.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel    = "gemini-1.5-flash"
	defaultProModel = "gemini-1.5-pro"

	// Minimum spacing between API calls.
	defaultCallSpacing = 1500 * time.Millisecond
)

// Client calls the Gemini REST API.
type Client struct {
	apiKey     string
	model      string
	proModel   string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	Stats *CallStats
}

// NewClient creates a Gemini client. model is used for topic generation and
// TOC building; cluster refinement uses the pro model.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:   apiKey,
		model:    model,
		proModel: defaultProModel,
		baseURL:  defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(defaultCallSpacing), 1),
		Stats:   NewCallStats(time.Hour),
	}
}

// Model returns the configured generation model name.
func (c *Client) Model() string { return c.model }

// SetBaseURL overrides the API endpoint, used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type generateConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig generateConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateTopics asks the model for n key topics in the transcript text.
// The prompt builder truncates text to its byte budget.
func (c *Client) GenerateTopics(ctx context.Context, text string, n int) ([]Topic, error) {
	prompt := BuildTopicsPrompt(text, n)
	raw, err := c.generate(ctx, c.model, prompt, generateConfig{
		Temperature:      0.3,
		TopP:             0.95,
		ResponseMimeType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Topics []Topic `json:"topics"`
	}
	if err := json.Unmarshal([]byte(stripCodeBlock(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("parse topics json: %w (raw: %s)", err, truncate(raw, 200))
	}

	valid := decoded.Topics[:0]
	for i := range decoded.Topics {
		if ValidateTopic(&decoded.Topics[i]) {
			valid = append(valid, decoded.Topics[i])
		}
	}
	return valid, nil
}

// RefineClusters asks the model to group topics into at most maxClusters
// semantically meaningful clusters with legal context.
func (c *Client) RefineClusters(ctx context.Context, topics []Topic, maxClusters int) ([]ClusterSummary, error) {
	if len(topics) == 0 {
		return nil, nil
	}
	prompt := BuildClusterPrompt(topics, maxClusters)
	raw, err := c.generate(ctx, c.proModel, prompt, generateConfig{
		Temperature:      0.2,
		ResponseMimeType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Clusters []ClusterSummary `json:"clusters"`
	}
	if err := json.Unmarshal([]byte(stripCodeBlock(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("parse clusters json: %w (raw: %s)", err, truncate(raw, 200))
	}

	for i := range decoded.Clusters {
		clampClusterSummary(&decoded.Clusters[i])
	}
	return decoded.Clusters, nil
}

// EnhancedTOC asks the model for a Markdown table of contents built from
// the topics. Returns the raw Markdown text.
func (c *Client) EnhancedTOC(ctx context.Context, topics []Topic) (string, error) {
	if len(topics) == 0 {
		return "", nil
	}
	prompt, err := BuildTOCPrompt(topics)
	if err != nil {
		return "", err
	}
	raw, err := c.generate(ctx, c.model, prompt, generateConfig{Temperature: 0.3})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// generate performs one rate-limited generateContent call and returns the
// first candidate's text.
func (c *Client) generate(ctx context.Context, model, prompt string, cfg generateConfig) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	var req generateRequest
	req.Contents = make([]struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}, 1)
	req.Contents[0].Parts = append(req.Contents[0].Parts, struct {
		Text string `json:"text"`
	}{Text: prompt})
	req.GenerationConfig = cfg

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if c.Stats != nil {
		c.Stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		return "", fmt.Errorf("gemini api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini api status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var apiResp generateResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", apiResp.Error.Code, apiResp.Error.Message)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var sb strings.Builder
	for _, p := range apiResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}
