package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-price-tracker/internal/metrics"
	"github.com/JakeFAU/realtime-price-tracker/internal/ratelimit"
	"github.com/JakeFAU/realtime-price-tracker/internal/tracker"
)

//go:embed static/index.html
var indexPage []byte

const (
	historyTimeLayout = "2006-01-02 15:04:05"
	priceNotFoundMsg  = "Price not found"
	defaultTimeout    = 60 * time.Second
)

// Searcher runs one tracking request for a product URL.
type Searcher interface {
	Search(ctx context.Context, url string) (tracker.Result, error)
}

// Server wires HTTP handlers to the tracker service.
type Server struct {
	router   chi.Router
	searcher Searcher
	pinger   tracker.Pinger
	logger   *zap.Logger
}

// Options carries the optional collaborators of a Server.
type Options struct {
	// Pinger backs /readyz. Nil means always ready.
	Pinger         tracker.Pinger
	RequestTimeout time.Duration
	// Limiter gates POST /search per client. Nil disables limiting.
	Limiter *ratelimit.Limiter
	// CORSAllowedOrigins enables CORS for the listed origins when non-empty.
	CORSAllowedOrigins []string
}

// NewServer constructs a Server with middleware and routes.
func NewServer(searcher Searcher, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s := &Server{
		searcher: searcher,
		pinger:   opts.Pinger,
		logger:   logger,
	}
	metrics.Init()

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
		}).Handler)
	}
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(timeout))

	r.Get("/", s.index)
	if opts.Limiter != nil {
		r.With(opts.Limiter.Middleware).Post("/search", s.search)
	} else {
		r.Post("/search", s.search)
	}
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type historyEntry struct {
	Timestamp string `json:"timestamp"`
	Price     string `json:"price"`
}

type searchSuccess struct {
	Success bool           `json:"success"`
	Price   string         `json:"price"`
	Title   string         `json:"title"`
	History []historyEntry `json:"history"`
}

type searchFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(indexPage); err != nil {
		s.logger.Warn("index write failed", zap.Error(err))
	}
}

// search always answers 200; failures are reported in the payload.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.FormValue("url"))
	if url == "" {
		s.writeJSON(w, http.StatusOK, searchFailure{Error: "url is required"})
		return
	}

	res, err := s.searcher.Search(r.Context(), url)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, tracker.ErrPriceNotFound) {
			msg = priceNotFoundMsg
		}
		s.writeJSON(w, http.StatusOK, searchFailure{Error: msg})
		return
	}

	s.writeJSON(w, http.StatusOK, searchSuccess{
		Success: true,
		Price:   formatPrice(res.Price),
		Title:   res.Title,
		History: toHistoryEntries(res.History),
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func toHistoryEntries(rows []tracker.Observation) []historyEntry {
	out := make([]historyEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, historyEntry{
			Timestamp: row.Timestamp.UTC().Format(historyTimeLayout),
			Price:     formatPrice(row.Price),
		})
	}
	return out
}

func formatPrice(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

type requestIDKey struct{}

// RequestID returns the request identifier stored by the middleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("request_id", RequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.String("request_id", RequestID(r.Context())),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(searchFailure{Error: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// timeoutMiddleware answers an overrunning request with a JSON 503. The
// outer Content-Type survives only on the timeout path; handlers that finish
// in time overwrite it with their own.
func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	body, _ := json.Marshal(searchFailure{Error: "request timed out"})
	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, d, string(body))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			th.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}
