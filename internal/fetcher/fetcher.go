// Package fetcher downloads deal-blog feeds and turns their items into snippets.
package fetcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"flight_monitor/internal/filter"
	"flight_monitor/internal/model"
)

const (
	maxDescription   = 500
	maxParallelFeeds = 4
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses RSS and Atom feeds.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads and parses a feed from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "FlightMonitor/1.0")

	resp, err := f.client.Do(req)
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

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// FetchAll fetches every feed concurrently and returns the snippets of all
// items in feed order, without duplicates. Failed feeds are reported in the
// joined error; snippets from the others are still returned.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]model.Snippet, error) {
	feeds := make([]*gofeed.Feed, len(urls))
	errs := make([]error, len(urls))

	var g errgroup.Group
	g.SetLimit(maxParallelFeeds)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			feed, err := f.Fetch(ctx, u)
			if err != nil {
				errs[i] = fmt.Errorf("fetch %s: %w", u, err)
				return nil
			}
			feeds[i] = feed
			return nil
		})
	}
	_ = g.Wait()

	var snippets []model.Snippet
	seen := make(map[string]bool)
	for _, feed := range feeds {
		if feed == nil {
			continue
		}
		for _, item := range feed.Items {
			guid := ItemGUID(item)
			if seen[guid] {
				continue
			}
			seen[guid] = true
			snippets = append(snippets, ToSnippet(item))
		}
	}
	return snippets, errors.Join(errs...)
}

// ItemGUID returns the GUID for a feed item.
// If the item has no GUID, a SHA-256 hash of title+link is used.
func ItemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}

// ToSnippet converts a feed item to plain text. Descriptions are stripped of
// markup and truncated.
func ToSnippet(item *gofeed.Item) model.Snippet {
	desc := plainText(item.Description)
	if r := []rune(desc); len(r) > maxDescription {
		desc = string(r[:maxDescription]) + "..."
	}
	return model.Snippet{
		Title:       strings.TrimSpace(item.Title),
		URL:         item.Link,
		Description: desc,
	}
}

// FilterSnippets returns the snippets that pass the filters.
func FilterSnippets(snippets []model.Snippet, filters []model.Filter) []model.Snippet {
	var matched []model.Snippet
	for _, s := range snippets {
		if filter.Match(s, filters) {
			matched = append(matched, s)
		}
	}
	return matched
}

func plainText(html string) string {
	if !strings.Contains(html, "<") {
		return strings.Join(strings.Fields(html), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
