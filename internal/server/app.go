// Package server builds the price tracker's dependencies and runs its HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-price-tracker/internal/api"
	"github.com/JakeFAU/realtime-price-tracker/internal/config"
	collyfetcher "github.com/JakeFAU/realtime-price-tracker/internal/fetcher/colly"
	"github.com/JakeFAU/realtime-price-tracker/internal/logging"
	"github.com/JakeFAU/realtime-price-tracker/internal/metrics"
	"github.com/JakeFAU/realtime-price-tracker/internal/ratelimit"
	"github.com/JakeFAU/realtime-price-tracker/internal/storage"
	"github.com/JakeFAU/realtime-price-tracker/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     tracker.Recorder
	service   *tracker.Service
	apiServer *api.Server
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(logging.Config{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return BuildWithLogger(ctx, cfg, logger)
}

// BuildWithLogger is Build with a caller-supplied logger.
func BuildWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger.Info("building application dependencies",
		zap.Int("port", cfg.Server.Port),
		zap.Duration("fetch_timeout", cfg.FetchTimeout()),
	)
	metrics.Init()

	store, err := storage.Open(ctx, cfg.Database.URL, tracker.SystemClock{}, storage.WithMaxConns(cfg.Database.MaxConns))
	if err != nil {
		return nil, fmt.Errorf("observation store init failed: %w", err)
	}
	backend, _, _ := storage.Resolve(cfg.Database.URL)
	logger.Info("observation store initialized", zap.String("backend", string(backend)))

	fetcher := collyfetcher.New(collyfetcher.Config{Timeout: cfg.FetchTimeout()}, logger.Named("fetcher"))
	svc, err := tracker.NewService(fetcher, store, logger.Named("tracker"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("tracker init failed: %w", err)
	}

	opts := api.Options{
		RequestTimeout:     cfg.RequestTimeout(),
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}
	if cfg.Server.RateLimitRPS > 0 {
		opts.Limiter = ratelimit.New(ratelimit.Config{
			RPS:   cfg.Server.RateLimitRPS,
			Burst: cfg.Server.RateLimitBurst,
		})
		logger.Info("search rate limiter enabled",
			zap.Float64("rps", cfg.Server.RateLimitRPS),
			zap.Int("burst", cfg.Server.RateLimitBurst),
		)
	}
	if p, ok := store.(tracker.Pinger); ok {
		opts.Pinger = p
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		service:   svc,
		apiServer: api.NewServer(svc, opts, logger.Named("api")),
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Service returns the tracker service behind the HTTP API.
func (a *App) Service() *tracker.Service {
	return a.service
}

// Run starts the application and blocks until the context is canceled or a
// termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := a.Close()
	if err := <-serveErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return closeErr
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("observation store close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	_ = a.logger.Sync()
	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
