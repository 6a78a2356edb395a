// Package storage selects and opens an observation store from a connection string.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/JakeFAU/realtime-price-tracker/internal/storage/memory"
	"github.com/JakeFAU/realtime-price-tracker/internal/storage/postgres"
	"github.com/JakeFAU/realtime-price-tracker/internal/storage/sqlite"
	"github.com/JakeFAU/realtime-price-tracker/internal/tracker"
)

// Backend names the store implementation chosen for a DSN.
type Backend string

// Supported backends.
const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

type options struct {
	maxConns int32
}

// Option tunes Open.
type Option func(*options)

// WithMaxConns caps the Postgres pool size. Other backends ignore it.
func WithMaxConns(n int32) Option {
	return func(o *options) { o.maxConns = n }
}

// Resolve maps a DSN to its backend and the backend-specific location.
func Resolve(dsn string) (Backend, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("database url is empty")
	case dsn == "memory://" || dsn == "memory":
		return BackendMemory, "", nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return BackendPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		// sqlite:///rel.db is relative and sqlite:////abs.db is absolute.
		path := strings.TrimPrefix(dsn, "sqlite://")
		return sqlitePath(strings.TrimPrefix(path, "/"))
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlitePath(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "file:"):
		return sqlitePath(strings.TrimPrefix(dsn, "file:"))
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("unsupported database url scheme in %q", dsn)
	default:
		return sqlitePath(dsn)
	}
}

func sqlitePath(path string) (Backend, string, error) {
	if path == "" {
		return "", "", fmt.Errorf("sqlite database url has no path")
	}
	return BackendSQLite, path, nil
}

// Store is what Open hands back: a tracker.Recorder, usually also a tracker.Pinger.
type Store interface {
	tracker.Recorder
}

// Open builds the store named by dsn.
func Open(ctx context.Context, dsn string, clock tracker.Clock, opts ...Option) (Store, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	backend, location, err := Resolve(dsn)
	if err != nil {
		return nil, err
	}
	switch backend {
	case BackendMemory:
		return memory.NewObservationStore(clock), nil
	case BackendSQLite:
		store, err := sqlite.NewObservationStore(ctx, location, clock)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendPostgres:
		store, err := postgres.NewObservationStore(ctx, postgres.Config{DSN: location, MaxConns: o.maxConns}, clock)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}
}
