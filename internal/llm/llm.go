// Package llm talks to a local Ollama server to extract and rate flight deals.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"flight_monitor/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Ollama generate endpoint.
type Client struct {
	client  HTTPClient
	baseURL string
	model   string
	timeout time.Duration
}

// New creates a Client for the server at baseURL using model.
func New(client HTTPClient, baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		timeout: timeout,
	}
}

// Model returns the model name used for generation.
func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends a prompt and returns the raw completion text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var r generateResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return r.Response, nil
}

// ExtractJSON returns the text between the first '{' and the last '}', or ""
// when there is no such block.
func ExtractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// ExtractDeals asks the model to pull flight offers out of search snippets.
// Only transport failures are returned as errors; unusable output yields no
// deals.
func (c *Client) ExtractDeals(ctx context.Context, snippets []model.Snippet, route RouteContext) ([]model.Deal, error) {
	if len(snippets) == 0 {
		return nil, nil
	}

	text, err := c.Generate(ctx, extractPrompt(snippets, route))
	if err != nil {
		return nil, fmt.Errorf("extract deals: %w", err)
	}
	return ParseDeals(text, route), nil
}

// ParseDeals decodes a completion into deals. Missing fields get defaults from
// the route context.
func ParseDeals(text string, route RouteContext) []model.Deal {
	raw := ExtractJSON(text)
	if raw == "" {
		return nil
	}

	var out struct {
		Deals []rawDeal `json:"deals"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}

	deals := make([]model.Deal, 0, len(out.Deals))
	for _, r := range out.Deals {
		deals = append(deals, r.toDeal(route))
	}
	return deals
}

// Evaluation is the model's opinion on a single deal.
type Evaluation struct {
	IsErrorFare bool
	Confidence  int
	Explanation string
	Urgency     string
}

// EvaluateDeal asks the model whether a deal looks like an error fare. It
// never fails: any problem yields confidence 50.
func (c *Client) EvaluateDeal(ctx context.Context, d model.Deal) Evaluation {
	fallback := Evaluation{Confidence: 50, Explanation: "could not evaluate", Urgency: "medium"}

	text, err := c.Generate(ctx, evaluatePrompt(d))
	if err != nil {
		return fallback
	}
	raw := ExtractJSON(text)
	if raw == "" {
		return fallback
	}

	var r struct {
		IsErrorFare bool      `json:"is_error_fare"`
		Confidence  flexFloat `json:"confidence"`
		Explanation string    `json:"explanation"`
		Urgency     string    `json:"urgency"`
	}
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return fallback
	}

	return Evaluation{
		IsErrorFare: r.IsErrorFare,
		Confidence:  clamp(int(r.Confidence), 0, 100),
		Explanation: r.Explanation,
		Urgency:     r.Urgency,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
