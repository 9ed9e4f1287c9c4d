// Package history keeps the lowest observed price per route and scores new
// prices against it.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"flight_monitor/internal/model"
	"flight_monitor/internal/scorer"
)

// ErrNotFound is returned when a route has no price record.
var ErrNotFound = errors.New("price record not found")

// Store persists one PriceRecord per route.
type Store interface {
	// Update applies one observation and reports whether it set a new minimum.
	// Every call is persisted before returning.
	Update(ctx context.Context, route string, price float64, currency, source, today string) (bool, error)
	Get(ctx context.Context, route string) (*model.PriceRecord, error)
	All(ctx context.Context) ([]model.PriceRecord, error)
}

// Apply returns rec updated with one observation and reports whether the
// minimum moved.
// A nil rec means the route was never seen.
func Apply(rec *model.PriceRecord, route string, price float64, currency, source, today string) (model.PriceRecord, bool) {
	if rec == nil {
		return model.PriceRecord{
			Route:       route,
			MinPrice:    price,
			Currency:    currency,
			FoundDate:   today,
			LastChecked: today,
			Source:      source,
			Samples:     1,
		}, true
	}

	out := *rec
	out.Samples++
	out.LastChecked = today
	if price < out.MinPrice {
		out.MinPrice = price
		out.Currency = currency
		out.FoundDate = today
		out.Source = source
		return out, true
	}
	return out, false
}

// Tracker records observations and scores prices using a Store.
type Tracker struct {
	store Store
	log   *slog.Logger
}

// NewTracker creates a Tracker over store.
func NewTracker(store Store, log *slog.Logger) *Tracker {
	return &Tracker{store: store, log: log}
}

// Record stores the deal's price as an observation for its route. Persistence
// failures are logged; the returned flag still reflects the in-memory result
// when the store provides one.
func (t *Tracker) Record(ctx context.Context, deal model.Deal, today string) bool {
	route := deal.Route()
	prev, _ := t.store.Get(ctx, route)

	isMin, err := t.store.Update(ctx, route, deal.Price, deal.Currency, deal.Source, today)
	if err != nil {
		t.log.Error("update price history", "route", route, "error", err)
	}
	if !isMin {
		return false
	}
	if prev == nil {
		t.log.Info("new route recorded", "route", route, "currency", deal.Currency, "price", deal.Price)
	} else {
		t.log.Info("new minimum price",
			"route", route,
			"currency", deal.Currency,
			"price", deal.Price,
			"previous", prev.MinPrice,
			"discount_pct", fmt.Sprintf("%.1f", (prev.MinPrice-deal.Price)/prev.MinPrice*100),
		)
	}
	return true
}

// Score rates price for the route, falling back to the static reference
// heuristic when the route has no history.
func (t *Tracker) Score(ctx context.Context, origin, destination string, price float64) (int, string) {
	rec, err := t.store.Get(ctx, model.RouteKey(origin, destination))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			t.log.Error("get price record", "route", model.RouteKey(origin, destination), "error", err)
		}
		return scorer.Heuristic(origin, destination, price)
	}
	return scorer.FromRecord(*rec, price)
}

// Stats renders the history sorted by cheapest minimum.
func Stats(records []model.PriceRecord, now time.Time) string {
	if len(records) == 0 {
		return "No price history yet."
	}

	sorted := make([]model.PriceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinPrice < sorted[j].MinPrice })

	var b strings.Builder
	fmt.Fprintf(&b, "Price history (%d routes):\n", len(sorted))
	for _, r := range sorted {
		fmt.Fprintf(&b, "  %s: %s %.0f (%s, %d samples)\n", r.Route, r.Currency, r.MinPrice, daysAgo(r.FoundDate, now), r.Samples)
	}
	return b.String()
}

// FormatRecord renders a single record.
func FormatRecord(r model.PriceRecord) string {
	return fmt.Sprintf("%s\nMinimum: %s %.0f\nFound: %s via %s\nLast checked: %s\nSamples: %d",
		r.Route, r.Currency, r.MinPrice, r.FoundDate, r.Source, r.LastChecked, r.Samples)
}

func daysAgo(date string, now time.Time) string {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return "unknown date"
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return fmt.Sprintf("%dd ago", int(today.Sub(d).Hours()/24))
}
