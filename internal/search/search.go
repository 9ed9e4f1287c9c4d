// Package search queries the Brave web search API for flight deal snippets.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"flight_monitor/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	URL       string
	APIKey    string
	Country   string
	Lang      string
	Freshness string
	Count     int
	Timeout   time.Duration
	// Limiter spaces requests. Nil means one request per second.
	Limiter *rate.Limiter
}

// Client performs Brave web searches.
type Client struct {
	client  HTTPClient
	opts    Options
	limiter *rate.Limiter
}

// New creates a Client with the given HTTP client.
func New(client HTTPClient, opts Options) *Client {
	lim := opts.Limiter
	if lim == nil {
		lim = rate.NewLimiter(rate.Every(time.Second), 1)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{client: client, opts: opts, limiter: lim}
}

type response struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search runs one query and returns its result snippets.
func (c *Client) Search(ctx context.Context, query string) ([]model.Snippet, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(c.opts.Count))
	if c.opts.Country != "" {
		params.Set("country", c.opts.Country)
	}
	if c.opts.Lang != "" {
		params.Set("search_lang", c.opts.Lang)
	}
	if c.opts.Freshness != "" {
		params.Set("freshness", c.opts.Freshness)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.opts.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	snippets := make([]model.Snippet, 0, len(r.Web.Results))
	for _, res := range r.Web.Results {
		snippets = append(snippets, model.Snippet{
			Title:       res.Title,
			URL:         res.URL,
			Description: res.Description,
		})
	}
	return snippets, nil
}

// Queries returns the error-fare search phrases for a route and date.
func Queries(route model.Route, date string) []string {
	o, d := route.Origin, route.Destination
	return []string{
		fmt.Sprintf("error fare %s %s %s", o, d, date),
		fmt.Sprintf("vuelos baratos %s %s %s", o, d, date),
		fmt.Sprintf("mistake fare %s to %s", o, d),
		fmt.Sprintf("%s %s flight deal", o, d),
		fmt.Sprintf("%s %s site:secretflying.com", o, d),
		fmt.Sprintf("%s %s site:fly4free.com", o, d),
	}
}
