// Package ratelimit implements a per-client token bucket for admitting search requests.
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/realtime-price-tracker/internal/metrics"
)

// Default bounds on the client table.
const (
	DefaultIdleTTL    = 10 * time.Minute
	DefaultMaxClients = 10000
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages one token bucket per client address. Buckets idle for
// longer than IdleTTL are dropped and the table never exceeds MaxClients.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*client
	defaultRate  rate.Limit
	defaultBurst int
	idleTTL      time.Duration
	maxClients   int
	lastSweep    time.Time
	now          func() time.Time
}

// Config holds rate limiter configuration. A non-positive RPS disables limiting.
type Config struct {
	RPS        float64
	Burst      int
	IdleTTL    time.Duration
	MaxClients int
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	return &Limiter{
		clients:      make(map[string]*client),
		defaultRate:  r,
		defaultBurst: burst,
		idleTTL:      cfg.IdleTTL,
		maxClients:   cfg.MaxClients,
		now:          time.Now,
	}
}

// Allow reports whether key may proceed now, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	c, exists := l.clients[key]
	if !exists {
		if len(l.clients) >= l.maxClients {
			l.evictOldest()
		}
		c = &client{limiter: rate.NewLimiter(l.defaultRate, l.defaultBurst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	l.mu.Unlock()
	return c.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) sweep(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idleTTL {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

func (l *Limiter) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, c := range l.clients {
		if oldestKey == "" || c.lastSeen.Before(oldest) {
			oldestKey, oldest = key, c.lastSeen
		}
	}
	delete(l.clients, oldestKey)
}

// Middleware rejects requests over the client's budget with a JSON 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r)
		if !l.Allow(client) {
			metrics.ObserveRateLimited()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}
