// Package analysis runs the extract, compare and score pipeline for one URL.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/maltedev/car-deal-analyzer/internal/cache"
	"github.com/maltedev/car-deal-analyzer/internal/models"
	"github.com/maltedev/car-deal-analyzer/internal/scraper"
)

type MarketSource interface {
	Comparison(ctx context.Context, carMake, carModel string) (*models.MarketComparison, error)
	CacheStats(ctx context.Context) cache.Stats
	ClearCache(ctx context.Context)
}

type Scorer interface {
	Score(listing *models.CarListing, market *models.MarketComparison) (*models.DealAnalysis, error)
}

// Recorder persists freshly computed analyses. Failures are logged only.
type Recorder interface {
	Record(ctx context.Context, analysis *models.DealAnalysis) error
}

type CacheStats struct {
	Analyses cache.Stats `json:"analyses"`
	Market   cache.Stats `json:"market"`
}

type Service struct {
	extractor scraper.Extractor
	market    MarketSource
	scorer    Scorer
	cache     cache.Cache[*models.DealAnalysis]
	recorder  Recorder
	group     singleflight.Group
	logger    *slog.Logger
}

func NewService(
	extractor scraper.Extractor,
	market MarketSource,
	scorer Scorer,
	c cache.Cache[*models.DealAnalysis],
	recorder Recorder,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		extractor: extractor,
		market:    market,
		scorer:    scorer,
		cache:     c,
		recorder:  recorder,
		logger:    logger.With("component", "analysis_service"),
	}
}

// CacheKey identifies an analysis by listing URL, price and mileage.
func CacheKey(l *models.CarListing) string {
	return fmt.Sprintf("%s-%d-%d", l.URL, l.Price, l.Mileage)
}

func (s *Service) Analyze(ctx context.Context, url string) (*models.DealAnalysis, error) {
	listing, err := s.extractor.Extract(ctx, url)
	if err != nil {
		if !errors.Is(err, scraper.ErrFetchFailed) {
			return nil, err
		}
		s.logger.Warn("fetch failed, estimating listing from URL", "url", url, "error", err)
		listing = s.extractor.ExtractFromURL(url)
	}

	key := CacheKey(listing)
	if cached, ok := s.cache.Get(ctx, key); ok {
		s.logger.Debug("analysis cache hit", "key", key)
		return cached, nil
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
		return s.compute(ctx, key, listing)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("analysis shared with concurrent request", "key", key)
	}
	return v.(*models.DealAnalysis), nil
}

func (s *Service) compute(ctx context.Context, key string, listing *models.CarListing) (*models.DealAnalysis, error) {
	market, err := s.market.Comparison(ctx, listing.Make, listing.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to get market comparison: %w", err)
	}

	result, err := s.scorer.Score(listing, market)
	if err != nil {
		return nil, fmt.Errorf("failed to score listing: %w", err)
	}

	s.cache.Set(ctx, key, result)

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, result); err != nil {
			s.logger.Error("failed to record analysis", "url", listing.URL, "error", err)
		}
	}

	s.logger.Info("analysis completed",
		"url", listing.URL,
		"make", listing.Make,
		"model", listing.Model,
		"score", result.DealScore,
		"recommendation", result.Recommendation,
		"source", listing.Source,
	)
	return result, nil
}

func (s *Service) MarketComparison(ctx context.Context, carMake, carModel string) (*models.MarketComparison, error) {
	return s.market.Comparison(ctx, carMake, carModel)
}

func (s *Service) CacheStats(ctx context.Context) CacheStats {
	return CacheStats{
		Analyses: s.cache.Stats(ctx),
		Market:   s.market.CacheStats(ctx),
	}
}

func (s *Service) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
	s.market.ClearCache(ctx)
	s.logger.Info("caches cleared")
}
