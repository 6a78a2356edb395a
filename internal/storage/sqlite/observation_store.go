// Package sqlite provides the file-backed observation store used by default.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// registers the "sqlite" driver
	_ "modernc.org/sqlite"

	"github.com/JakeFAU/realtime-price-tracker/internal/tracker"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	product_url TEXT NOT NULL,
	product_title TEXT NOT NULL,
	price REAL NOT NULL CHECK (price > 0),
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS observations_product_url_idx ON observations (product_url, recorded_at);
`

// ObservationStore persists observations in a single SQLite file.
type ObservationStore struct {
	db    *sql.DB
	clock tracker.Clock
}

// NewObservationStore opens (or creates) the database at path and applies the schema.
func NewObservationStore(ctx context.Context, path string, clock tracker.Clock) (*ObservationStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create observation schema: %w", err)
	}
	if clock == nil {
		clock = tracker.SystemClock{}
	}
	return &ObservationStore{db: db, clock: clock}, nil
}

// Record inserts one observation stamped with the store clock.
func (s *ObservationStore) Record(ctx context.Context, url, title string, price float64) (tracker.Observation, error) {
	if err := tracker.ValidatePrice(price); err != nil {
		return tracker.Observation{}, err
	}
	now := s.clock.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO observations (product_url, product_title, price, recorded_at) VALUES (?, ?, ?, ?)`,
		url, title, price, now.UnixNano(),
	)
	if err != nil {
		return tracker.Observation{}, fmt.Errorf("insert observation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return tracker.Observation{}, fmt.Errorf("observation id: %w", err)
	}
	return tracker.Observation{ID: id, URL: url, Title: title, Price: price, Timestamp: now}, nil
}

// History returns the observations for url, oldest first.
func (s *ObservationStore) History(ctx context.Context, url string) ([]tracker.Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_url, product_title, price, recorded_at FROM observations
		WHERE product_url = ? ORDER BY recorded_at ASC, id ASC`,
		url,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []tracker.Observation{}
	for rows.Next() {
		var (
			obs   tracker.Observation
			nanos int64
		)
		if err := rows.Scan(&obs.ID, &obs.URL, &obs.Title, &obs.Price, &nanos); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs.Timestamp = time.Unix(0, nanos).UTC()
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Ping checks the database handle.
func (s *ObservationStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *ObservationStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
