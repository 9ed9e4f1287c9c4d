// Package storage opens the configured backend for price history and known deals.
package storage

import (
	"flight_monitor/internal/history"
	"flight_monitor/internal/known"
)

// Storage is the combined persistence surface of every backend.
type Storage interface {
	history.Store
	known.Set
	Close() error
}

var _ Storage = (*SQLite)(nil)
