package market

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/maltedev/car-deal-analyzer/internal/cache"
	"github.com/maltedev/car-deal-analyzer/internal/models"
)

// Service asks every configured pricing API at once, keeps the first valid
// answer in provider order and otherwise falls back to fixtures.
type Service struct {
	providers []Provider
	fallback  Provider
	cache     cache.Cache[*models.MarketComparison]
	logger    *slog.Logger
}

func NewService(providers []Provider, fallback Provider, c cache.Cache[*models.MarketComparison], logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if fallback == nil {
		fallback = NewFixtureProvider(nil)
	}
	return &Service{
		providers: providers,
		fallback:  fallback,
		cache:     c,
		logger:    logger.With("component", "market_data"),
	}
}

func (s *Service) Comparison(ctx context.Context, carMake, carModel string) (*models.MarketComparison, error) {
	key := Key(carMake, carModel)

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	result := s.fromProviders(ctx, carMake, carModel)
	if result == nil {
		var err error
		result, err = s.fallback.Comparison(ctx, carMake, carModel)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("using fallback market data", "key", key, "source", result.Source)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, result)
	}
	return result, nil
}

func (s *Service) fromProviders(ctx context.Context, carMake, carModel string) *models.MarketComparison {
	if len(s.providers) == 0 {
		return nil
	}

	results := make([]*models.MarketComparison, len(s.providers))
	var g errgroup.Group
	for i, p := range s.providers {
		i, p := i, p
		g.Go(func() error {
			mc, err := p.Comparison(ctx, carMake, carModel)
			if err != nil {
				s.logger.Warn("market data source failed", "source", p.Name(), "error", err)
				return nil
			}
			if err := mc.Validate(); err != nil {
				s.logger.Warn("market data source returned invalid data", "source", p.Name(), "error", err)
				return nil
			}
			results[i] = mc
			return nil
		})
	}
	_ = g.Wait()

	for _, mc := range results {
		if mc != nil {
			return mc
		}
	}
	return nil
}

func (s *Service) CacheStats(ctx context.Context) cache.Stats {
	if s.cache == nil {
		return cache.Stats{Keys: []string{}}
	}
	return s.cache.Stats(ctx)
}

func (s *Service) ClearCache(ctx context.Context) {
	if s.cache != nil {
		s.cache.Clear(ctx)
	}
}
