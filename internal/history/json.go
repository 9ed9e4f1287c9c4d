package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"flight_monitor/internal/jsonfile"
	"flight_monitor/internal/model"
)

// JSONStore keeps the price history in a single JSON document keyed by route.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	records map[string]model.PriceRecord
}

// NewJSONStore creates an empty store backed by path. Call Load to read
// existing records.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path:    path,
		records: make(map[string]model.PriceRecord),
	}
}

// Load replaces the in-memory records with the file contents. A missing file
// is not an error.
func (s *JSONStore) Load() error {
	records := make(map[string]model.PriceRecord)
	if _, err := jsonfile.Load(s.path, &records); err != nil {
		return fmt.Errorf("load price history: %w", err)
	}
	for route, rec := range records {
		if rec.Route == "" {
			rec.Route = route
			records[route] = rec
		}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

// Update applies an observation and rewrites the file. On a write error the
// in-memory record keeps the observation.
func (s *JSONStore) Update(_ context.Context, route string, price float64, currency, source, today string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *model.PriceRecord
	if rec, ok := s.records[route]; ok {
		prev = &rec
	}
	rec, isMin := Apply(prev, route, price, currency, source, today)
	s.records[route] = rec

	if err := jsonfile.Save(s.path, s.records); err != nil {
		return isMin, fmt.Errorf("save price history: %w", err)
	}
	return isMin, nil
}

// Get returns the record for route or ErrNotFound.
func (s *JSONStore) Get(_ context.Context, route string) (*model.PriceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[route]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// All returns every record ordered by route.
func (s *JSONStore) All(_ context.Context) ([]model.PriceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PriceRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out, nil
}
