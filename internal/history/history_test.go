package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"flight_monitor/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "price_history.json")
	s := NewJSONStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s, path
}

func TestUpdateTracksRunningMinimum(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	prices := []float64{520, 540, 480, 480, 610, 455, 470}
	wantNew := []bool{true, false, true, false, false, true, false}

	minSoFar := prices[0]
	for i, p := range prices {
		got, err := s.Update(ctx, "EZE-MAD", p, "USD", "brave", "2026-01-10")
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
		if got != wantNew[i] {
			t.Errorf("update %d (price %v): isNewMinimum = %v, want %v", i, p, got, wantNew[i])
		}
		if p < minSoFar {
			minSoFar = p
		}

		rec, err := s.Get(ctx, "EZE-MAD")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if rec.MinPrice != minSoFar {
			t.Errorf("after update %d: MinPrice = %v, want %v", i, rec.MinPrice, minSoFar)
		}
		if rec.Samples != i+1 {
			t.Errorf("after update %d: Samples = %d, want %d", i, rec.Samples, i+1)
		}
	}
}

func TestUpdateOverwritesMetadataOnlyOnNewMinimum(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	mustUpdate(t, s, "EZE-BCN", 500, "USD", "kayak", "2026-01-01")
	mustUpdate(t, s, "EZE-BCN", 520, "USD", "skyscanner", "2026-01-02")
	mustUpdate(t, s, "EZE-BCN", 450, "EUR", "google", "2026-01-03")
	mustUpdate(t, s, "EZE-BCN", 460, "USD", "despegar", "2026-01-04")

	got, err := s.Get(ctx, "EZE-BCN")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := &model.PriceRecord{
		Route:       "EZE-BCN",
		MinPrice:    450,
		Currency:    "EUR",
		FoundDate:   "2026-01-03",
		LastChecked: "2026-01-04",
		Source:      "google",
		Samples:     4,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestRoutesAreOrderSensitive(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	mustUpdate(t, s, "EZE-MAD", 500, "USD", "a", "2026-01-01")
	if _, err := s.Get(ctx, "MAD-EZE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(MAD-EZE) error = %v, want ErrNotFound", err)
	}
}

func TestStorePersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	s, path := newStore(t)

	mustUpdate(t, s, "EZE-MAD", 500, "USD", "a", "2026-01-01")
	mustUpdate(t, s, "MDZ-SLA", 95, "USD", "b", "2026-01-02")

	reloaded := NewJSONStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	want, _ := s.All(ctx)
	got, err := reloaded.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reloaded mismatch (-want +got):\n%s", diff)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the history file, found %d entries", len(entries))
	}
}

func TestFileFormat(t *testing.T) {
	s, path := newStore(t)
	mustUpdate(t, s, "EZE-MAD", 500, "USD", "brave", "2026-01-01")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"EZE-MAD"`, `"min_price": 500`, `"found_date"`, `"last_checked"`, `"samples": 1`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("file does not contain %s:\n%s", key, data)
		}
	}
}

func TestUpdateKeepsMemoryOnSaveError(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewJSONStore(filepath.Join(blocker, "price_history.json"))
	isMin, err := s.Update(ctx, "EZE-MAD", 500, "USD", "a", "2026-01-01")
	if err == nil {
		t.Fatal("expected save error")
	}
	if !isMin {
		t.Error("expected first observation to be a new minimum")
	}
	rec, err := s.Get(ctx, "EZE-MAD")
	if err != nil {
		t.Fatalf("get after failed save: %v", err)
	}
	if rec.Samples != 1 {
		t.Errorf("Samples = %d, want 1", rec.Samples)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewJSONStore(path)
	if err := s.Load(); err == nil {
		t.Fatal("expected error for corrupt file")
	}
	all, _ := s.All(context.Background())
	if len(all) != 0 {
		t.Errorf("expected empty store after failed load, got %d records", len(all))
	}
}

func TestTrackerScore(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	tr := NewTracker(s, discardLogger())

	// No history: static reference of 450 for EZE-MAD.
	tests := []struct {
		price float64
		want  int
	}{
		{300, 100},
		{450, 80},
		{500, 50},
	}
	for _, tt := range tests {
		got, _ := tr.Score(ctx, "EZE", "MAD", tt.price)
		if got != tt.want {
			t.Errorf("heuristic Score(%v) = %d, want %d", tt.price, got, tt.want)
		}
	}

	if !tr.Record(ctx, model.Deal{Origin: "EZE", Destination: "MAD", Price: 450, Currency: "USD", Source: "x"}, "2026-01-01") {
		t.Fatal("expected first record to be a new minimum")
	}

	hist := []struct {
		price float64
		want  int
	}{
		{450, 100},
		{449, 100},
		{470, 95},
		{500, 80},
		{600, 50},
	}
	for _, tt := range hist {
		got, _ := tr.Score(ctx, "EZE", "MAD", tt.price)
		if got != tt.want {
			t.Errorf("history Score(%v) = %d, want %d", tt.price, got, tt.want)
		}
	}
}

func TestTrackerScoreHundredIffAtOrBelowMinimum(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	tr := NewTracker(s, discardLogger())
	mustUpdate(t, s, "EZE-FCO", 480, "USD", "a", "2026-01-01")

	for _, p := range []float64{100, 479.99, 480, 480.01, 481, 900} {
		got, _ := tr.Score(ctx, "EZE", "FCO", p)
		if (got == 100) != (p <= 480) {
			t.Errorf("Score(%v) = %d", p, got)
		}
	}
}

func TestStats(t *testing.T) {
	now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
	records := []model.PriceRecord{
		{Route: "EZE-MAD", MinPrice: 480, Currency: "USD", FoundDate: "2026-01-15", Samples: 7},
		{Route: "MDZ-SLA", MinPrice: 85, Currency: "USD", FoundDate: "2026-01-20", Samples: 2},
	}

	got := Stats(records, now)
	want := "Price history (2 routes):\n" +
		"  MDZ-SLA: USD 85 (0d ago, 2 samples)\n" +
		"  EZE-MAD: USD 480 (5d ago, 7 samples)\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	if got := Stats(nil, now); got != "No price history yet." {
		t.Errorf("empty Stats = %q", got)
	}
}

func mustUpdate(t *testing.T, s Store, route string, price float64, currency, source, today string) {
	t.Helper()
	if _, err := s.Update(context.Background(), route, price, currency, source, today); err != nil {
		t.Fatalf("update %s: %v", route, err)
	}
}
