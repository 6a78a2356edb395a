package tracker

import (
	"context"
	"time"
)

// Fetcher retrieves the raw markup of a product page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Recorder is the append-only observation store.
type Recorder interface {
	// Record inserts one observation stamped with the store's current UTC time.
	Record(ctx context.Context, url, title string, price float64) (Observation, error)
	// History returns every observation for url, oldest first.
	History(ctx context.Context, url string) ([]Observation, error)
	Close() error
}

// Pinger is implemented by recorders backed by a remote connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
