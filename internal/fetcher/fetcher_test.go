package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"

	"flight_monitor/internal/filter"
	"flight_monitor/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
}

func (m *mockTransport) Do(_ *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

// routedTransport serves a different response per URL.
type routedTransport map[string]*mockTransport

func (r routedTransport) Do(req *http.Request) (*http.Response, error) {
	m, ok := r[req.URL.String()]
	if !ok {
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(""))}, nil
	}
	return m.Do(req)
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func TestFetch(t *testing.T) {
	xml := loadFixture(t, "../../testdata/deals.xml")

	tests := []struct {
		name      string
		transport *mockTransport
		wantTitle string
		wantItems int
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: xml, statusCode: 200},
			wantTitle: "Error Fare Alerts",
			wantItems: 4,
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
		{
			name:      "invalid xml",
			transport: &mockTransport{body: "not xml at all", statusCode: 200},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.transport)
			feed, err := f.Fetch(context.Background(), "https://example.com/rss")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.wantTitle, feed.Title); diff != "" {
				t.Errorf("title mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantItems, len(feed.Items)); diff != "" {
				t.Errorf("item count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchAll(t *testing.T) {
	xml := loadFixture(t, "../../testdata/deals.xml")
	transport := routedTransport{
		"https://a.example/feed": {body: xml, statusCode: 200},
		// Same items again: duplicates are dropped.
		"https://b.example/feed": {body: xml, statusCode: 200},
		"https://c.example/feed": {err: io.ErrUnexpectedEOF},
	}

	got, err := New(transport).FetchAll(context.Background(), []string{
		"https://a.example/feed",
		"https://c.example/feed",
		"https://b.example/feed",
	})
	if err == nil {
		t.Fatal("expected error for failing feed")
	}
	if !strings.Contains(err.Error(), "c.example") {
		t.Errorf("error %q does not name the failing feed", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d snippets, want 4", len(got))
	}

	want := model.Snippet{
		Title:       "Buenos Aires to Madrid from USD 389 roundtrip",
		URL:         "https://deals.example.com/eze-mad-389",
		Description: "Iberia is selling EZE-MAD tickets for only USD 389 in March.",
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("first snippet mismatch (-want +got):\n%s", diff)
	}
}

func TestItemGUID(t *testing.T) {
	tests := []struct {
		name     string
		item     *gofeed.Item
		wantGUID string
		hasHash  bool
	}{
		{
			name:     "with guid",
			item:     &gofeed.Item{GUID: "abc-123"},
			wantGUID: "abc-123",
		},
		{
			name:    "without guid generates hash",
			item:    &gofeed.Item{Title: "Rome error fare", Link: "https://example.com/post-1"},
			hasHash: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ItemGUID(tt.item)
			if tt.hasHash {
				if !strings.HasPrefix(got, "sha256:") {
					t.Errorf("expected sha256 prefix, got %q", got)
				}
				return
			}
			if diff := cmp.Diff(tt.wantGUID, got); diff != "" {
				t.Errorf("GUID mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToSnippetTruncates(t *testing.T) {
	long := strings.Repeat("á", maxDescription+20)
	got := ToSnippet(&gofeed.Item{Title: " t ", Description: long})
	if got.Title != "t" {
		t.Errorf("Title = %q", got.Title)
	}
	if want := strings.Repeat("á", maxDescription) + "..."; got.Description != want {
		t.Errorf("description not truncated on a rune boundary")
	}
}

func TestFilterSnippets(t *testing.T) {
	xml := loadFixture(t, "../../testdata/deals.xml")
	feed, err := gofeed.NewParser().ParseString(xml)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	var snippets []model.Snippet
	for _, item := range feed.Items {
		snippets = append(snippets, ToSnippet(item))
	}

	madrid := filter.RouteRules(model.Route{Origin: "EZE", Destination: "MAD", Name: "Buenos Aires - Madrid"})

	tests := []struct {
		name       string
		filters    []model.Filter
		wantTitles []string
	}{
		{
			name:    "no filters returns all",
			filters: nil,
			wantTitles: []string{
				"Buenos Aires to Madrid from USD 389 roundtrip",
				"Flash sale: Barcelona from Buenos Aires USD 455",
				"Madrid hotel package 3 nights",
				"Rome error fare USD 410",
			},
		},
		{
			name:    "route rules",
			filters: madrid,
			wantTitles: []string{
				"Buenos Aires to Madrid from USD 389 roundtrip",
				"Madrid hotel package 3 nights",
			},
		},
		{
			name:    "route rules with excludes",
			filters: append(append([]model.Filter{}, madrid...), model.Filter{Kind: model.FilterExclude, Scope: model.ScopeAll, Value: "hotel"}),
			wantTitles: []string{
				"Buenos Aires to Madrid from USD 389 roundtrip",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTitles []string
			for _, s := range FilterSnippets(snippets, tt.filters) {
				gotTitles = append(gotTitles, s.Title)
			}
			if diff := cmp.Diff(tt.wantTitles, gotTitles); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
