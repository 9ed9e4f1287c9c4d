package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"flight_monitor/internal/config"
	"flight_monitor/internal/history"
	"flight_monitor/internal/known"
)

// JSON pairs the file-backed price history and known-deal set.
type JSON struct {
	*history.JSONStore
	*known.JSONSet
}

// Close is a no-op; every write is already on disk.
func (JSON) Close() error { return nil }

var _ Storage = JSON{}

// Open returns the backend selected by cfg.StorageBackend. Unreadable JSON
// state files are logged and treated as empty.
func Open(cfg *config.Config, log *slog.Logger) (Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		return NewSQLite(cfg.DatabasePath)

	case config.BackendJSON, "":
		hist := history.NewJSONStore(cfg.HistoryPath())
		if err := hist.Load(); err != nil {
			log.Warn("load price history, starting empty", "path", cfg.HistoryPath(), "error", err)
		}
		set := known.NewJSONSet(cfg.StatePath())
		if err := set.Load(); err != nil {
			log.Warn("load known deals, starting empty", "path", cfg.StatePath(), "error", err)
		}
		return JSON{JSONStore: hist, JSONSet: set}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
