package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/realtime-price-tracker/internal/tracker"
)

type stepClock struct {
	next time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

func openStore(t *testing.T, clock tracker.Clock) (*ObservationStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewObservationStore(context.Background(), path, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestObservationStore_RecordAndHistory(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store, _ := openStore(t, &stepClock{next: start, step: time.Minute})

	first, err := store.Record(ctx, "https://shop.test/a", "Widget", 12.5)
	require.NoError(t, err)
	require.Equal(t, start, first.Timestamp)

	_, err = store.Record(ctx, "https://shop.test/b", "Gadget", 99)
	require.NoError(t, err)

	second, err := store.Record(ctx, "https://shop.test/a", "Widget", 11)
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	rows, err := store.History(ctx, "https://shop.test/a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 12.5, rows[0].Price)
	require.Equal(t, 11.0, rows[1].Price)
	require.True(t, rows[0].Timestamp.Before(rows[1].Timestamp))
	require.Equal(t, start.Add(2*time.Minute), rows[1].Timestamp)

	other, err := store.History(ctx, "https://shop.test/b")
	require.NoError(t, err)
	require.Len(t, other, 1)
	require.Equal(t, "Gadget", other[0].Title)
}

func TestObservationStore_HistoryEmpty(t *testing.T) {
	store, _ := openStore(t, nil)
	rows, err := store.History(context.Background(), "https://shop.test/missing")
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Empty(t, rows)
}

func TestObservationStore_RejectsInvalidPrice(t *testing.T) {
	store, _ := openStore(t, nil)
	_, err := store.Record(context.Background(), "https://shop.test/a", "Widget", -1)
	require.ErrorIs(t, err, tracker.ErrInvalidPrice)

	rows, err := store.History(context.Background(), "https://shop.test/a")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestObservationStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	store, path := openStore(t, nil)
	_, err := store.Record(ctx, "https://shop.test/a", "Widget", 3.25)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewObservationStore(ctx, path, nil)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Ping(ctx))

	rows, err := reopened.History(ctx, "https://shop.test/a")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 3.25, rows[0].Price)
}

func TestNewObservationStore_RequiresPath(t *testing.T) {
	_, err := NewObservationStore(context.Background(), "", nil)
	require.Error(t, err)
}
