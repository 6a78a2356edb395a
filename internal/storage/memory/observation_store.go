// Package memory provides an in-process observation store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JakeFAU/realtime-price-tracker/internal/tracker"
)

// ObservationStore keeps observations in memory, grouped by exact URL.
type ObservationStore struct {
	mu     sync.RWMutex
	clock  tracker.Clock
	nextID int64
	byURL  map[string][]tracker.Observation
}

// NewObservationStore constructs an ObservationStore. A nil clock uses UTC wall time.
func NewObservationStore(clock tracker.Clock) *ObservationStore {
	if clock == nil {
		clock = tracker.SystemClock{}
	}
	return &ObservationStore{
		clock: clock,
		byURL: make(map[string][]tracker.Observation),
	}
}

// Record appends an observation stamped with the store clock.
func (s *ObservationStore) Record(_ context.Context, url, title string, price float64) (tracker.Observation, error) {
	if err := tracker.ValidatePrice(price); err != nil {
		return tracker.Observation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	obs := tracker.Observation{
		ID:        s.nextID,
		URL:       url,
		Title:     title,
		Price:     price,
		Timestamp: s.clock.Now().UTC(),
	}
	s.byURL[url] = append(s.byURL[url], obs)
	return obs, nil
}

// History returns a copy of the observations recorded for url, oldest first.
func (s *ObservationStore) History(_ context.Context, url string) ([]tracker.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.byURL[url]
	out := make([]tracker.Observation, len(rows))
	copy(out, rows)
	sortByTimestamp(out)
	return out, nil
}

// Close is a no-op.
func (s *ObservationStore) Close() error { return nil }

func sortByTimestamp(rows []tracker.Observation) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
}
