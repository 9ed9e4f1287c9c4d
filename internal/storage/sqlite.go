package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"flight_monitor/internal/history"
	"flight_monitor/internal/model"
	"flight_monitor/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer, and a single shared :memory: database in tests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Update applies one price observation to the route inside a transaction.
func (s *SQLite) Update(ctx context.Context, route string, price float64, currency, source, today string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := getRecord(ctx, tx, route)
	if err != nil && !errors.Is(err, history.ErrNotFound) {
		return false, err
	}

	rec, isMin := history.Apply(prev, route, price, currency, source, today)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO price_history (route, min_price, currency, found_date, last_checked, source, samples)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(route) DO UPDATE SET
		   min_price = excluded.min_price,
		   currency = excluded.currency,
		   found_date = excluded.found_date,
		   last_checked = excluded.last_checked,
		   source = excluded.source,
		   samples = excluded.samples`,
		rec.Route, rec.MinPrice, rec.Currency, rec.FoundDate, rec.LastChecked, rec.Source, rec.Samples,
	)
	if err != nil {
		return false, fmt.Errorf("upsert price record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return isMin, nil
}

// Get returns the price record for route, or history.ErrNotFound.
func (s *SQLite) Get(ctx context.Context, route string) (*model.PriceRecord, error) {
	return getRecord(ctx, s.db, route)
}

// All returns every price record ordered by route.
func (s *SQLite) All(ctx context.Context) ([]model.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT route, min_price, currency, found_date, last_checked, source, samples
		 FROM price_history ORDER BY route`,
	)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.PriceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// IsNew reports whether the fingerprint has never been marked seen.
func (s *SQLite) IsNew(ctx context.Context, fp string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM known_deals WHERE fingerprint = ?`, fp,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check known deal: %w", err)
	}
	return count == 0, nil
}

// MarkSeen records a fingerprint. The first-seen time of an existing entry is kept.
func (s *SQLite) MarkSeen(ctx context.Context, fp string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO known_deals (fingerprint, first_seen) VALUES (?, ?)`,
		fp, now.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// Prune deletes fingerprints first seen before the cutoff.
func (s *SQLite) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM known_deals WHERE first_seen < ?`, before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune known deals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Len returns the number of remembered fingerprints.
func (s *SQLite) Len(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM known_deals`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count known deals: %w", err)
	}
	return count, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scannable interface {
	Scan(dest ...any) error
}

func getRecord(ctx context.Context, q queryer, route string) (*model.PriceRecord, error) {
	row := q.QueryRowContext(ctx,
		`SELECT route, min_price, currency, found_date, last_checked, source, samples
		 FROM price_history WHERE route = ?`, route,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, history.ErrNotFound
	}
	return rec, err
}

func scanRecord(row scannable) (*model.PriceRecord, error) {
	var r model.PriceRecord
	err := row.Scan(&r.Route, &r.MinPrice, &r.Currency, &r.FoundDate, &r.LastChecked, &r.Source, &r.Samples)
	if err != nil {
		return nil, fmt.Errorf("scan price record: %w", err)
	}
	return &r, nil
}
