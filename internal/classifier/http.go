// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/wevbarker/DRADIS/pkg/types"
)

// relevancePromptTmpl instructs the model to return a compact JSON
// relevance analysis and nothing else.
var relevancePromptTmpl = template.Must(template.New("relevance").Parse(`User expertise: {{.Keywords}}

Document: "{{.Title}}"
Abstract: {{.Excerpt}}...

Quick relevance analysis (respond in JSON only):
{
    "relevance_score": 0.0-1.0,
    "key_concepts": ["concept1", "concept2"],
    "flagged": true/false,
    "reasoning": "brief explanation"
}
`))

// apiURL is the classifier endpoint. Package-level var for test substitution.
var apiURL = "https://api.anthropic.com/v1/messages"

// retryBaseDelay is the base duration for exponential backoff on HTTP 429.
// Tests override this to avoid real sleeps.
var retryBaseDelay = time.Second

// HTTPBackend calls the hosted model API to classify one document.
type HTTPBackend struct {
	Config types.ClassifierConfig
	Client *http.Client
}

// NewHTTPBackend returns a backend with a client honoring cfg.Timeout.
func NewHTTPBackend(cfg types.ClassifierConfig) *HTTPBackend {
	return &HTTPBackend{
		Config: cfg,
		Client: &http.Client{Timeout: cfg.Timeout},
	}
}

// apiRequest is the request body for the messages API.
type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiResponse is the response body from the messages API.
type apiResponse struct {
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Classify renders the relevance prompt, calls the model API (retrying
// 429 responses with exponential backoff), and parses the model's text
// into a tagged Result.
func (b *HTTPBackend) Classify(ctx context.Context, req Request) (Result, error) {
	prompt, err := renderPrompt(req)
	if err != nil {
		return Result{}, fmt.Errorf("rendering prompt: %w", err)
	}

	body, err := json.Marshal(apiRequest{
		Model:     b.Config.Model,
		MaxTokens: 1024,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := b.doWithRetry(ctx, body)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("classifier API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decoding classifier API response: %w", err)
	}

	var text strings.Builder
	for _, c := range parsed.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	return Parse(text.String())
}

// doWithRetry posts the request body, retrying HTTP 429 with exponential
// backoff up to the configured retry budget. The body is drained and
// closed before each retry; a context cancelled during the wait aborts.
func (b *HTTPBackend) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	maxRetries := b.Config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", b.Config.UserAgent)
		req.Header.Set("x-api-key", b.Config.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := b.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("calling classifier API: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * retryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func renderPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	err := relevancePromptTmpl.Execute(&buf, struct {
		Keywords string
		Title    string
		Excerpt  string
	}{
		Keywords: strings.Join(req.ProfileKeywords, ", "),
		Title:    req.DocumentTitle,
		Excerpt:  req.AbstractExcerpt,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
