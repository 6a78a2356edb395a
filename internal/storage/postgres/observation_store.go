// Package postgres provides the Postgres-backed observation store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/realtime-price-tracker/internal/tracker"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "observations"

// Config controls the Postgres connection pool used for observation rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// ObservationStore writes and reads observation rows in Postgres.
type ObservationStore struct {
	pool  pool
	table string
	clock tracker.Clock
}

// NewObservationStore connects to Postgres and creates the table if it is missing.
func NewObservationStore(ctx context.Context, cfg Config, clock tracker.Clock) (*ObservationStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.url is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewObservationStoreWithPool(p, cfg.Table, clock)
	if err != nil {
		p.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewObservationStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewObservationStoreWithPool(p pool, table string, clock tracker.Clock) (*ObservationStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if clock == nil {
		clock = tracker.SystemClock{}
	}
	return &ObservationStore{pool: p, table: table, clock: clock}, nil
}

// EnsureSchema creates the observation table and its url index.
func (s *ObservationStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	product_url TEXT NOT NULL,
	product_title TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL CHECK (price > 0),
	recorded_at TIMESTAMPTZ NOT NULL
)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_product_url_idx ON %s (product_url, recorded_at)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create observation schema: %w", err)
		}
	}
	return nil
}

// Record inserts one observation row stamped with the store clock.
func (s *ObservationStore) Record(ctx context.Context, url, title string, price float64) (tracker.Observation, error) {
	if err := tracker.ValidatePrice(price); err != nil {
		return tracker.Observation{}, err
	}
	obs := tracker.Observation{
		URL:       url,
		Title:     title,
		Price:     price,
		Timestamp: s.clock.Now().UTC(),
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (product_url, product_title, price, recorded_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		s.table,
	)
	if err := s.pool.QueryRow(ctx, query, obs.URL, obs.Title, obs.Price, obs.Timestamp).Scan(&obs.ID); err != nil {
		return tracker.Observation{}, fmt.Errorf("insert observation: %w", err)
	}
	return obs, nil
}

// History returns the rows for url ordered oldest first.
func (s *ObservationStore) History(ctx context.Context, url string) ([]tracker.Observation, error) {
	query := fmt.Sprintf(
		`SELECT id, product_url, product_title, price, recorded_at FROM %s WHERE product_url = $1 ORDER BY recorded_at ASC, id ASC`,
		s.table,
	)
	rows, err := s.pool.Query(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []tracker.Observation{}
	for rows.Next() {
		var obs tracker.Observation
		if err := rows.Scan(&obs.ID, &obs.URL, &obs.Title, &obs.Price, &obs.Timestamp); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs.Timestamp = obs.Timestamp.UTC()
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Ping checks that the database is reachable.
func (s *ObservationStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *ObservationStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
