package market

import (
	"context"

	"github.com/maltedev/car-deal-analyzer/internal/jitter"
	"github.com/maltedev/car-deal-analyzer/internal/models"
)

const (
	DefaultFixture = "toyota-camry"
	FixtureSource  = "fixture"

	baselineSpread = 0.10
	priceSpread    = 0.10
	mileageSpread  = 0.15
)

var fixtures = map[string]models.MarketComparison{
	"toyota-camry": {
		AveragePrice: 25000,
		PriceRange:   models.PriceRange{Min: 22000, Max: 28000},
		MarketTrend:  models.TrendStable,
		SimilarListings: []models.SimilarListing{
			{Price: 24500, Mileage: 45000, Location: "Los Angeles, CA", URL: "https://cars.com/listing/1"},
			{Price: 26000, Mileage: 38000, Location: "San Francisco, CA", URL: "https://cars.com/listing/2"},
			{Price: 23500, Mileage: 52000, Location: "San Diego, CA", URL: "https://cars.com/listing/3"},
		},
	},
	"honda-civic": {
		AveragePrice: 22000,
		PriceRange:   models.PriceRange{Min: 19000, Max: 25000},
		MarketTrend:  models.TrendIncreasing,
		SimilarListings: []models.SimilarListing{
			{Price: 22500, Mileage: 42000, Location: "Los Angeles, CA", URL: "https://cars.com/listing/4"},
			{Price: 21000, Mileage: 48000, Location: "San Francisco, CA", URL: "https://cars.com/listing/5"},
			{Price: 23500, Mileage: 35000, Location: "San Diego, CA", URL: "https://cars.com/listing/6"},
		},
	},
	"ford-f-150": {
		AveragePrice: 45000,
		PriceRange:   models.PriceRange{Min: 40000, Max: 50000},
		MarketTrend:  models.TrendDecreasing,
		SimilarListings: []models.SimilarListing{
			{Price: 44000, Mileage: 35000, Location: "Los Angeles, CA", URL: "https://cars.com/listing/7"},
			{Price: 46000, Mileage: 28000, Location: "San Francisco, CA", URL: "https://cars.com/listing/8"},
			{Price: 42000, Mileage: 42000, Location: "San Diego, CA", URL: "https://cars.com/listing/9"},
		},
	},
	"bmw-3-series": {
		AveragePrice: 35000,
		PriceRange:   models.PriceRange{Min: 30000, Max: 40000},
		MarketTrend:  models.TrendStable,
		SimilarListings: []models.SimilarListing{
			{Price: 34500, Mileage: 38000, Location: "Los Angeles, CA", URL: "https://cars.com/listing/10"},
			{Price: 36000, Mileage: 32000, Location: "San Francisco, CA", URL: "https://cars.com/listing/11"},
			{Price: 33000, Mileage: 45000, Location: "San Diego, CA", URL: "https://cars.com/listing/12"},
		},
	},
	"honda-accord": {
		AveragePrice: 24000,
		PriceRange:   models.PriceRange{Min: 21000, Max: 27000},
		MarketTrend:  models.TrendStable,
		SimilarListings: []models.SimilarListing{
			{Price: 23500, Mileage: 40000, Location: "Los Angeles, CA", URL: "https://cars.com/listing/13"},
			{Price: 25000, Mileage: 35000, Location: "San Francisco, CA", URL: "https://cars.com/listing/14"},
			{Price: 23000, Mileage: 48000, Location: "San Diego, CA", URL: "https://cars.com/listing/15"},
		},
	},
	"toyota-rav4": {
		AveragePrice: 28000,
		PriceRange:   models.PriceRange{Min: 25000, Max: 32000},
		MarketTrend:  models.TrendIncreasing,
		SimilarListings: []models.SimilarListing{
			{Price: 27500, Mileage: 42000, Location: "Los Angeles, CA", URL: "https://cars.com/listing/16"},
			{Price: 28500, Mileage: 38000, Location: "San Francisco, CA", URL: "https://cars.com/listing/17"},
			{Price: 27000, Mileage: 45000, Location: "San Diego, CA", URL: "https://cars.com/listing/18"},
		},
	},
}

// HasFixture reports whether key has its own baseline rather than the default.
func HasFixture(key string) bool {
	_, ok := fixtures[key]
	return ok
}

// FixtureProvider serves built-in baselines with random variation. Unknown
// vehicles get the Toyota Camry baseline.
type FixtureProvider struct {
	rand jitter.Source
}

func NewFixtureProvider(src jitter.Source) *FixtureProvider {
	if src == nil {
		src = jitter.NewSource(0)
	}
	return &FixtureProvider{rand: src}
}

func (p *FixtureProvider) Name() string { return FixtureSource }

func (p *FixtureProvider) Comparison(_ context.Context, carMake, carModel string) (*models.MarketComparison, error) {
	base, ok := fixtures[Key(carMake, carModel)]
	if !ok {
		base = fixtures[DefaultFixture]
	}

	// one factor for the whole baseline keeps min <= average <= max
	factor := jitter.Factor(p.rand, baselineSpread)
	out := &models.MarketComparison{
		AveragePrice: scale(base.AveragePrice, factor),
		PriceRange: models.PriceRange{
			Min: scale(base.PriceRange.Min, factor),
			Max: scale(base.PriceRange.Max, factor),
		},
		MarketTrend:     base.MarketTrend,
		SimilarListings: make([]models.SimilarListing, 0, len(base.SimilarListings)),
		Source:          FixtureSource,
	}

	for _, s := range base.SimilarListings {
		s.Price = jitter.Apply(p.rand, s.Price, priceSpread)
		s.Mileage = jitter.Apply(p.rand, s.Mileage, mileageSpread)
		out.SimilarListings = append(out.SimilarListings, s)
	}

	return out, nil
}

func scale(v int, factor float64) int {
	return int(float64(v)*factor + 0.5)
}
