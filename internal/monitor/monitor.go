// Package monitor runs search cycles: it gathers snippets, extracts and scores
// deals, and alerts on new ones above the threshold.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"flight_monitor/internal/fetcher"
	"flight_monitor/internal/filter"
	"flight_monitor/internal/history"
	"flight_monitor/internal/known"
	"flight_monitor/internal/llm"
	"flight_monitor/internal/model"
	"flight_monitor/internal/notify"
	"flight_monitor/internal/portal"
	"flight_monitor/internal/scorer"
	"flight_monitor/internal/search"
)

// ErrBusy is returned when a cycle is already running.
var ErrBusy = errors.New("a search cycle is already running")

// Searcher runs a single web search query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.Snippet, error)
}

// FeedSource fetches deal feeds.
type FeedSource interface {
	FetchAll(ctx context.Context, urls []string) ([]model.Snippet, error)
}

// Extractor turns snippets into deals and rates them.
type Extractor interface {
	ExtractDeals(ctx context.Context, snippets []model.Snippet, route llm.RouteContext) ([]model.Deal, error)
	EvaluateDeal(ctx context.Context, d model.Deal) llm.Evaluation
}

// Options configures a Monitor.
type Options struct {
	Routes         []model.Route
	AlertThreshold int
	PriceFloorUSD  float64
	// KnownMaxAge is how long a fingerprint suppresses alerts. Zero keeps
	// fingerprints forever.
	KnownMaxAge time.Duration
	// Evaluate asks the extractor for a second opinion on every deal.
	Evaluate bool
	Feeds    []string
	// FeedExcludes are applied to feed snippets on top of the route rules.
	FeedExcludes []model.Filter
	// NotifyGap is the minimum time between two alerts.
	NotifyGap time.Duration
	// TopN is how many deals a Summary keeps.
	TopN int
}

// Deps are the collaborators of a Monitor. Feeds may be nil.
type Deps struct {
	Search   Searcher
	Feeds    FeedSource
	LLM      Extractor
	History  history.Store
	Known    known.Set
	Notifier notify.Notifier
}

// Summary describes one finished cycle.
type Summary struct {
	Started  time.Time
	Finished time.Time
	Routes   int
	Deals    int
	Alerts   int
	Known    int
	Pruned   int
	Top      []model.Deal
}

// Monitor runs search cycles.
type Monitor struct {
	deps    Deps
	tracker *history.Tracker
	opts    Options
	log     *slog.Logger
	limiter *rate.Limiter
	now     func() time.Time

	busy atomic.Bool

	mu   sync.Mutex
	last *Summary
}

// New creates a Monitor.
func New(deps Deps, opts Options, log *slog.Logger) *Monitor {
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if opts.NotifyGap > 0 {
		lim = rate.NewLimiter(rate.Every(opts.NotifyGap), 1)
	}
	return &Monitor{
		deps:    deps,
		tracker: history.NewTracker(deps.History, log),
		opts:    opts,
		log:     log,
		limiter: lim,
		now:     time.Now,
	}
}

// Routes returns the watched routes.
func (m *Monitor) Routes() []model.Route {
	return m.opts.Routes
}

// Busy reports whether a cycle is running.
func (m *Monitor) Busy() bool {
	return m.busy.Load()
}

// LastSummary returns the summary of the last finished cycle.
func (m *Monitor) LastSummary() (Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Summary{}, false
	}
	return *m.last, true
}

// Scan searches one route for deals departing on date. Deals are validated,
// enriched, deduplicated and sorted best first. Nothing is recorded.
func (m *Monitor) Scan(ctx context.Context, route model.Route, date string) ([]model.Deal, error) {
	return m.scan(ctx, route, date, m.fetchFeeds(ctx))
}

// RunCycle scans every configured route.
func (m *Monitor) RunCycle(ctx context.Context) (Summary, error) {
	return m.RunRoutes(ctx, m.opts.Routes)
}

// RunRoutes runs one cycle over routes: scan, record prices, and alert on new
// deals scoring at least the threshold. Returns ErrBusy when another cycle is
// in progress.
func (m *Monitor) RunRoutes(ctx context.Context, routes []model.Route) (Summary, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return Summary{}, ErrBusy
	}
	defer m.busy.Store(false)

	now := m.now()
	today := now.Format(model.DateLayout)
	sum := Summary{Started: now, Routes: len(routes)}

	if m.opts.KnownMaxAge > 0 {
		n, err := m.deps.Known.Prune(ctx, now.Add(-m.opts.KnownMaxAge))
		if err != nil {
			m.log.Error("prune known deals", "error", err)
		}
		sum.Pruned = n
	}

	feedSnippets := m.fetchFeeds(ctx)

	var all, alerts []model.Deal
	queued := make(map[string]bool)
	for _, route := range routes {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}

		deals, err := m.scan(ctx, route, route.DepartureDate(now), feedSnippets)
		if err != nil {
			return sum, err
		}
		m.log.Info("route scanned", "route", route.Key(), "deals", len(deals))

		for _, d := range deals {
			m.tracker.Record(ctx, d, today)
			all = append(all, d)

			fp := known.Fingerprint(d)
			isNew, err := m.deps.Known.IsNew(ctx, fp)
			if err != nil {
				m.log.Error("check known deal", "fingerprint", fp, "error", err)
				continue
			}
			if !isNew || queued[fp] {
				sum.Known++
				continue
			}
			if d.DealScore < m.opts.AlertThreshold {
				continue
			}
			queued[fp] = true
			alerts = append(alerts, d)
		}
	}

	sortDeals(alerts)
	for _, d := range alerts {
		if err := m.limiter.Wait(ctx); err != nil {
			return sum, fmt.Errorf("wait to notify: %w", err)
		}
		if err := m.deps.Notifier.Notify(ctx, d); err != nil {
			m.log.Error("notify", "route", d.Route(), "airline", d.Airline, "error", err)
		}
		if err := m.deps.Known.MarkSeen(ctx, known.Fingerprint(d), m.now()); err != nil {
			m.log.Error("mark deal seen", "route", d.Route(), "error", err)
		}
		sum.Alerts++
		m.log.Info("deal alert", "route", d.Route(), "airline", d.Airline, "price", d.Price, "score", d.DealScore)
	}

	sortDeals(all)
	sum.Deals = len(all)
	sum.Top = all[:min(len(all), m.opts.TopN)]
	sum.Finished = m.now()

	m.mu.Lock()
	m.last = &sum
	m.mu.Unlock()

	m.log.Info("cycle finished",
		"routes", sum.Routes,
		"deals", sum.Deals,
		"alerts", sum.Alerts,
		"duration", sum.Finished.Sub(sum.Started).Round(time.Millisecond),
	)
	return sum, nil
}

func (m *Monitor) fetchFeeds(ctx context.Context) []model.Snippet {
	if m.deps.Feeds == nil || len(m.opts.Feeds) == 0 {
		return nil
	}
	snippets, err := m.deps.Feeds.FetchAll(ctx, m.opts.Feeds)
	if err != nil {
		m.log.Warn("fetch deal feeds", "error", err)
	}
	return snippets
}

func (m *Monitor) scan(ctx context.Context, route model.Route, date string, feedSnippets []model.Snippet) ([]model.Deal, error) {
	rc := llm.RouteContext{Origin: route.Origin, Destination: route.Destination, DepartureDate: date}

	var batches [][]model.Snippet
	for _, q := range search.Queries(route, date) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		snippets, err := m.deps.Search.Search(ctx, q)
		if err != nil {
			m.log.Warn("search query failed", "route", route.Key(), "query", q, "error", err)
			continue
		}
		if len(snippets) > 0 {
			batches = append(batches, snippets)
		}
	}

	rules := append(filter.RouteRules(route), m.opts.FeedExcludes...)
	if matched := fetcher.FilterSnippets(feedSnippets, rules); len(matched) > 0 {
		batches = append(batches, matched)
	}

	var deals []model.Deal
	seen := make(map[string]bool)
	for _, batch := range batches {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		extracted, err := m.deps.LLM.ExtractDeals(ctx, batch, rc)
		if err != nil {
			m.log.Warn("extract deals failed", "route", route.Key(), "error", err)
			continue
		}
		for _, d := range extracted {
			if err := Validate(d, m.opts.PriceFloorUSD); err != nil {
				m.log.Debug("deal rejected", "route", route.Key(), "airline", d.Airline, "price", d.Price, "reason", err)
				continue
			}
			fp := known.Fingerprint(d)
			if seen[fp] {
				continue
			}
			seen[fp] = true
			deals = append(deals, m.enrich(ctx, d))
		}
	}

	sortDeals(deals)
	return deals, nil
}

// enrich fills in reputation, score and the portal link. The score is taken
// against history as it stood before this observation.
func (m *Monitor) enrich(ctx context.Context, d model.Deal) model.Deal {
	d.ReputationScore = scorer.Reputation(d.Airline)

	var notes []string
	score, explanation := m.tracker.Score(ctx, d.Origin, d.Destination, d.Price)
	d.DealScore = score
	notes = append(notes, explanation)

	if m.opts.Evaluate {
		ev := m.deps.LLM.EvaluateDeal(ctx, d)
		d.Confidence = ev.Confidence
		notes = append(notes, fmt.Sprintf("Model confidence %d/100: %s", ev.Confidence, ev.Explanation))
	}
	if d.Notes != "" {
		notes = append(notes, d.Notes)
	}
	d.Notes = strings.Join(notes, " | ")
	d.SearchURL = portal.SearchURL(d)
	return d
}

// sortDeals orders by score, then model confidence, then price.
func sortDeals(deals []model.Deal) {
	sort.SliceStable(deals, func(i, j int) bool {
		a, b := deals[i], deals[j]
		if a.DealScore != b.DealScore {
			return a.DealScore > b.DealScore
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Price < b.Price
	})
}
