// Package market supplies the price baselines listings are scored against.
package market

import (
	"context"
	"errors"
	"strings"

	"github.com/maltedev/car-deal-analyzer/internal/models"
)

var ErrNoData = errors.New("no market data")

// Provider returns a baseline for a make and model.
type Provider interface {
	Name() string
	Comparison(ctx context.Context, carMake, carModel string) (*models.MarketComparison, error)
}

// Key normalizes make and model into a lookup key such as "bmw-3-series".
func Key(carMake, carModel string) string {
	k := strings.ToLower(strings.TrimSpace(carMake)) + "-" + strings.ToLower(strings.TrimSpace(carModel))
	return strings.Join(strings.Fields(k), "-")
}

// NormalizeTrend maps free-form trend data from pricing APIs onto a MarketTrend.
// Strings are matched by keyword, numbers by a ±5% threshold.
func NormalizeTrend(v any) models.MarketTrend {
	switch t := v.(type) {
	case string:
		s := strings.ToLower(t)
		switch {
		case strings.Contains(s, "up"), strings.Contains(s, "increase"), strings.Contains(s, "rising"):
			return models.TrendIncreasing
		case strings.Contains(s, "down"), strings.Contains(s, "decrease"), strings.Contains(s, "falling"):
			return models.TrendDecreasing
		}
	case float64:
		return trendFromRate(t)
	case float32:
		return trendFromRate(float64(t))
	case int:
		return trendFromRate(float64(t))
	}
	return models.TrendStable
}

func trendFromRate(r float64) models.MarketTrend {
	switch {
	case r > 0.05:
		return models.TrendIncreasing
	case r < -0.05:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}
