package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fixed sampling parameters for schedule generation. Low temperature
// keeps the output deterministic-leaning and parseable.
const (
	genTemperature     = 0.2
	genTopP            = 0.8
	genTopK            = 40
	genMaxOutputTokens = 8192
)

// maxErrorBody caps how much of an upstream error body is retained
const maxErrorBody = 4096

// Generator produces raw model output for a compiled prompt. The HTTP
// client and the guest-mode mock both implement it; which one a
// deployment gets is decided at wiring time.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Response, error)
}

// Response is the generation API response envelope
type Response struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated output
type Candidate struct {
	Content Content `json:"content"`
}

// Content holds the free-form text parts of a candidate
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is a single text fragment
type Part struct {
	Text string `json:"text"`
}

// FirstText returns the first candidate's first text part. The pipeline
// reads exactly this payload and ignores any further candidates.
func (r *Response) FirstText() (string, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return "", false
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", false
	}
	return parts[0].Text, true
}

// Client calls the Gemini generateContent endpoint
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new generation client
func NewClient(endpoint, model, apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []Part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Generate sends the prompt and returns the decoded response envelope.
// No partial response is accepted and no retry is performed here; retry
// policy belongs to the caller.
func (c *Client) Generate(ctx context.Context, prompt string) (*Response, error) {
	if c.apiKey == "" {
		return nil, &AuthenticationError{Message: "api key is not configured"}
	}

	body, err := json.Marshal(generateRequest{
		Contents: []requestContent{
			{Parts: []Part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     genTemperature,
			TopP:            genTopP,
			TopK:            genTopK,
			MaxOutputTokens: genMaxOutputTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, &AuthenticationError{Message: fmt.Sprintf("endpoint rejected credentials: status %d", resp.StatusCode)}
		}
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(errBody)}
	}

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}

	return &envelope, nil
}
