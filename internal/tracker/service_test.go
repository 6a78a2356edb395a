package tracker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/realtime-price-tracker/internal/storage/memory"
	"github.com/JakeFAU/realtime-price-tracker/internal/tracker"
)

type fakeFetcher struct {
	pages map[string]string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (tracker.Page, error) {
	f.calls++
	if f.err != nil {
		return tracker.Page{}, f.err
	}
	return tracker.Page{URL: url, StatusCode: 200, Body: []byte(f.pages[url])}, nil
}

type failingRecorder struct {
	*memory.ObservationStore
	recordErr  error
	historyErr error
}

func (r *failingRecorder) Record(ctx context.Context, url, title string, price float64) (tracker.Observation, error) {
	if r.recordErr != nil {
		return tracker.Observation{}, r.recordErr
	}
	return r.ObservationStore.Record(ctx, url, title, price)
}

func (r *failingRecorder) History(ctx context.Context, url string) ([]tracker.Observation, error) {
	if r.historyErr != nil {
		return nil, r.historyErr
	}
	return r.ObservationStore.History(ctx, url)
}

type tickClock struct{ t time.Time }

func (c *tickClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

const productPage = `<html><body>
<span id="productTitle">  Espresso Machine  </span>
<span class="a-price"><span class="a-price-symbol">$</span><span class="a-price-whole">149.99</span></span>
</body></html>`

func newService(t *testing.T, f tracker.Fetcher, r tracker.Recorder) *tracker.Service {
	t.Helper()
	svc, err := tracker.NewService(f, r, nil)
	require.NoError(t, err)
	return svc
}

func TestSearch_RecordsAndReturnsHistory(t *testing.T) {
	url := "https://shop.test/espresso"
	fetcher := &fakeFetcher{pages: map[string]string{url: productPage}}
	store := memory.NewObservationStore(&tickClock{t: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	svc := newService(t, fetcher, store)

	first, err := svc.Search(context.Background(), url)
	require.NoError(t, err)
	require.Equal(t, 149.99, first.Price)
	require.Equal(t, "Espresso Machine", first.Title)
	require.Equal(t, "span.a-price-whole", first.Rule)
	require.Len(t, first.History, 1)

	second, err := svc.Search(context.Background(), url)
	require.NoError(t, err)
	require.Len(t, second.History, 2)
	require.True(t, second.History[0].Timestamp.Before(second.History[1].Timestamp))
	require.Equal(t, 2, fetcher.calls)
}

func TestSearch_PriceNotFoundRecordsNothing(t *testing.T) {
	url := "https://shop.test/empty"
	fetcher := &fakeFetcher{pages: map[string]string{url: "<html><body><p>Sold out</p></body></html>"}}
	store := memory.NewObservationStore(nil)
	svc := newService(t, fetcher, store)

	_, err := svc.Search(context.Background(), url)
	require.ErrorIs(t, err, tracker.ErrPriceNotFound)

	rows, err := store.History(context.Background(), url)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestSearch_MarkupFallbackAndMissingTitle(t *testing.T) {
	url := "https://shop.test/fallback"
	fetcher := &fakeFetcher{pages: map[string]string{url: "<html><body><div>Now only €45.00</div></body></html>"}}
	svc := newService(t, fetcher, memory.NewObservationStore(nil))

	res, err := svc.Search(context.Background(), url)
	require.NoError(t, err)
	require.Equal(t, 45.0, res.Price)
	require.Equal(t, "Title not found", res.Title)
}

func TestSearch_FetchError(t *testing.T) {
	svc := newService(t, &fakeFetcher{err: errors.New("connection refused")}, memory.NewObservationStore(nil))

	_, err := svc.Search(context.Background(), "https://shop.test/down")
	require.ErrorContains(t, err, "connection refused")
	require.NotErrorIs(t, err, tracker.ErrPriceNotFound)
}

func TestSearch_EmptyURL(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := newService(t, fetcher, memory.NewObservationStore(nil))

	_, err := svc.Search(context.Background(), "  ")
	require.Error(t, err)
	require.Zero(t, fetcher.calls)
}

func TestSearch_RecordError(t *testing.T) {
	url := "https://shop.test/espresso"
	rec := &failingRecorder{ObservationStore: memory.NewObservationStore(nil), recordErr: errors.New("disk full")}
	svc := newService(t, &fakeFetcher{pages: map[string]string{url: productPage}}, rec)

	_, err := svc.Search(context.Background(), url)
	require.ErrorContains(t, err, "record observation: disk full")
}

func TestSearch_HistoryErrorKeepsRow(t *testing.T) {
	url := "https://shop.test/espresso"
	store := memory.NewObservationStore(nil)
	rec := &failingRecorder{ObservationStore: store, historyErr: errors.New("read failed")}
	svc := newService(t, &fakeFetcher{pages: map[string]string{url: productPage}}, rec)

	_, err := svc.Search(context.Background(), url)
	require.ErrorContains(t, err, "load history")

	rows, err := store.History(context.Background(), url)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := tracker.NewService(nil, memory.NewObservationStore(nil), nil)
	require.Error(t, err)
	_, err = tracker.NewService(&fakeFetcher{}, nil, nil)
	require.Error(t, err)
}
