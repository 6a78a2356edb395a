package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowPerKey(t *testing.T) {
	l := New(Config{RPS: 0.001, Burst: 2})

	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.2"), "buckets are independent per key")
}

func TestLimiter_DisabledWhenRPSNotPositive(t *testing.T) {
	l := New(Config{})
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("client"))
	}
}

type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time { return c.t }

func TestLimiter_DropsIdleClients(t *testing.T) {
	clock := &manualClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(Config{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	l.now = clock.now

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		require.True(t, l.Allow(ip))
	}
	require.Equal(t, 3, l.Len())

	clock.t = clock.t.Add(2 * time.Minute)
	require.True(t, l.Allow("10.0.0.4"))
	require.Equal(t, 1, l.Len(), "idle buckets are swept")
}

func TestLimiter_CapsClientTable(t *testing.T) {
	clock := &manualClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(Config{RPS: 0.001, Burst: 1, IdleTTL: time.Hour, MaxClients: 2})
	l.now = clock.now

	require.True(t, l.Allow("a"))
	clock.t = clock.t.Add(time.Second)
	require.True(t, l.Allow("b"))
	clock.t = clock.t.Add(time.Second)
	require.True(t, l.Allow("c"))
	require.Equal(t, 2, l.Len())

	// "a" was the least recently seen, so it starts over with a full bucket.
	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("c"))
}

func TestLimiter_Middleware(t *testing.T) {
	l := New(Config{RPS: 0.001, Burst: 1})
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	req.RemoteAddr = "192.0.2.10:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req.RemoteAddr = "192.0.2.10:6666"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.JSONEq(t, `{"success":false,"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	require.Equal(t, "2001:db8::1", clientKey(req))

	req.RemoteAddr = "pipe"
	require.Equal(t, "pipe", clientKey(req))
}
