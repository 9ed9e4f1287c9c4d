package known

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"flight_monitor/internal/jsonfile"
)

type state struct {
	KnownDeals []string             `json:"known_deals"`
	LastUpdate string               `json:"last_update"`
	FirstSeen  map[string]time.Time `json:"first_seen,omitempty"`
}

// JSONSet stores fingerprints in state.json.
type JSONSet struct {
	mu         sync.Mutex
	path       string
	seen       map[string]time.Time
	lastUpdate time.Time
	now        func() time.Time
}

// NewJSONSet creates an empty set backed by path. Call Load to read existing
// fingerprints.
func NewJSONSet(path string) *JSONSet {
	return &JSONSet{
		path: path,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Load reads the state file. Fingerprints are normalized to the current
// format, and those without a first-seen time are stamped with the load time
// so they age out like any other.
func (s *JSONSet) Load() error {
	var st state
	if _, err := jsonfile.Load(s.path, &st); err != nil {
		return fmt.Errorf("load known deals: %w", err)
	}

	loadedAt := s.now().UTC()
	seen := make(map[string]time.Time, len(st.KnownDeals))
	for _, fp := range st.KnownDeals {
		ts, ok := st.FirstSeen[fp]
		if !ok {
			ts = loadedAt
		}
		key := Normalize(fp)
		if prev, dup := seen[key]; dup && prev.Before(ts) {
			continue
		}
		seen[key] = ts
	}

	var last time.Time
	if st.LastUpdate != "" {
		last, _ = time.Parse(time.RFC3339, st.LastUpdate)
	}

	s.mu.Lock()
	s.seen = seen
	s.lastUpdate = last
	s.mu.Unlock()
	return nil
}

// IsNew reports whether fp has never been marked seen.
func (s *JSONSet) IsNew(_ context.Context, fp string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[fp]
	return !ok, nil
}

// MarkSeen adds fp and rewrites the state file. The fingerprint stays in memory
// even when the write fails.
func (s *JSONSet) MarkSeen(_ context.Context, fp string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[fp]; !ok {
		s.seen[fp] = now.UTC()
	}
	s.lastUpdate = now.UTC()
	return s.saveLocked()
}

// Prune removes fingerprints first seen before the cutoff.
func (s *JSONSet) Prune(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for fp, ts := range s.seen {
		if ts.Before(before) {
			delete(s.seen, fp)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.saveLocked()
}

// Len returns the number of remembered fingerprints.
func (s *JSONSet) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen), nil
}

func (s *JSONSet) saveLocked() error {
	st := state{
		KnownDeals: make([]string, 0, len(s.seen)),
		FirstSeen:  make(map[string]time.Time, len(s.seen)),
	}
	for fp, ts := range s.seen {
		st.KnownDeals = append(st.KnownDeals, fp)
		st.FirstSeen[fp] = ts
	}
	sort.Strings(st.KnownDeals)
	if !s.lastUpdate.IsZero() {
		st.LastUpdate = s.lastUpdate.Format(time.RFC3339)
	}

	if err := jsonfile.Save(s.path, st); err != nil {
		return fmt.Errorf("save known deals: %w", err)
	}
	return nil
}
