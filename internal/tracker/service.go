package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-price-tracker/internal/extract"
	"github.com/JakeFAU/realtime-price-tracker/internal/metrics"
)

// Search outcomes reported to metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Service runs the fetch, extract, record, history pipeline for one URL.
type Service struct {
	fetcher  Fetcher
	recorder Recorder
	logger   *zap.Logger
}

// NewService wires a Service. A nil logger is replaced with a no-op logger.
func NewService(fetcher Fetcher, recorder Recorder, logger *zap.Logger) (*Service, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if recorder == nil {
		return nil, errors.New("recorder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Service{fetcher: fetcher, recorder: recorder, logger: logger}, nil
}

// Search fetches url, extracts its price and title, records an observation and
// returns the full history for url. ErrPriceNotFound means nothing was recorded.
func (s *Service) Search(ctx context.Context, url string) (Result, error) {
	res, err := s.search(ctx, url)
	switch {
	case err == nil:
		metrics.ObserveSearch(OutcomeSuccess)
		s.logger.Info("price recorded",
			zap.String("url", url),
			zap.Float64("price", res.Price),
			zap.String("rule", res.Rule),
			zap.Int("history_len", len(res.History)),
		)
	case errors.Is(err, ErrPriceNotFound):
		metrics.ObserveSearch(OutcomeNotFound)
		s.logger.Info("price not found", zap.String("url", url))
	default:
		metrics.ObserveSearch(OutcomeError)
		s.logger.Warn("search failed", zap.String("url", url), zap.Error(err))
	}
	return res, err
}

func (s *Service) search(ctx context.Context, url string) (Result, error) {
	if strings.TrimSpace(url) == "" {
		return Result{}, errors.New("url is required")
	}

	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	if page.StatusCode >= http.StatusBadRequest {
		s.logger.Debug("extracting from error page", zap.String("url", url), zap.Int("status", page.StatusCode))
	}

	doc, err := extract.ParseDocument(page.Body)
	if err != nil {
		return Result{}, err
	}
	match, ok := extract.Price(doc)
	if !ok {
		return Result{}, ErrPriceNotFound
	}
	metrics.ObserveExtraction(match.Rule)
	title := extract.Title(doc)

	if _, err := s.recorder.Record(ctx, url, title, match.Price); err != nil {
		return Result{}, fmt.Errorf("record observation: %w", err)
	}
	history, err := s.recorder.History(ctx, url)
	if err != nil {
		return Result{}, fmt.Errorf("load history: %w", err)
	}

	return Result{
		URL:     url,
		Title:   title,
		Price:   match.Price,
		Rule:    match.Rule,
		History: history,
	}, nil
}
