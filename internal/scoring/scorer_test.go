package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/car-deal-analyzer/internal/models"
)

var fixedNow = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func camryMarket(trend models.MarketTrend) *models.MarketComparison {
	return &models.MarketComparison{
		AveragePrice: 25000,
		PriceRange:   models.PriceRange{Min: 22000, Max: 28000},
		MarketTrend:  trend,
		SimilarListings: []models.SimilarListing{
			{Price: 24500, Mileage: 45000, Location: "Los Angeles, CA"},
			{Price: 26000, Mileage: 38000, Location: "San Francisco, CA"},
			{Price: 23500, Mileage: 52000, Location: "San Diego, CA"},
		},
	}
}

func TestScoreCamryExample(t *testing.T) {
	listing := &models.CarListing{
		URL:     "https://cars.com/listing/1",
		Make:    "Toyota",
		Model:   "Camry",
		Price:   22500,
		Mileage: 36000,
		Year:    fixedNow.Year() - 1,
	}

	analysis, err := newTestScorer().Score(listing, camryMarket(models.TrendStable))
	require.NoError(t, err)

	// 50 + 20 (price) + 10 (mileage) + 8 (age) + 6 (Toyota)
	assert.Equal(t, 94, analysis.DealScore)
	assert.Equal(t, models.RecommendationExcellent, analysis.Recommendation)
	assert.Equal(t, verdictExcellent, analysis.FinalVerdict)
	assert.Equal(t, fixedNow, analysis.Timestamp)

	assert.False(t, analysis.PriceAnalysis.IsOverpriced)
	assert.Equal(t, -2500, analysis.PriceAnalysis.PriceDifference)
	assert.InDelta(t, -10.0, analysis.PriceAnalysis.PercentageDifference, 1e-9)

	assert.Equal(t, []string{
		"This vehicle is priced 10.0% below market average, making it an attractive deal.",
		"With 20.0% fewer miles than similar vehicles, this car shows less wear and tear.",
		"This is a very recent model year (1 year old), which typically commands a premium.",
		"Toyota is known for reliability, which adds value to this vehicle.",
	}, analysis.Reasoning)
	assert.Equal(t, []string{
		"Significantly below market average",
		"Low mileage for its age",
		"Recent model year",
		"Reliable brand",
	}, analysis.Pros)
	assert.Equal(t, []string{fillerCon}, analysis.Cons)
}

func TestScoreSlightlyBelowMarket(t *testing.T) {
	listing := &models.CarListing{
		Make:     "Saab",
		Model:    "9-3",
		Price:    22750,
		Mileage:  45000,
		Year:     fixedNow.Year() - 6,
		Location: "Unknown Location",
	}

	analysis, err := newTestScorer().Score(listing, camryMarket(models.TrendStable))
	require.NoError(t, err)

	assert.Equal(t, 65, analysis.DealScore)
	assert.Equal(t, models.RecommendationFair, analysis.Recommendation)
	assert.Equal(t, []string{"Below market average"}, analysis.Pros)
	assert.Equal(t, []string{fillerCon}, analysis.Cons)
	assert.Equal(t, []string{
		"This vehicle is priced 9.0% below market average, offering good value.",
	}, analysis.Reasoning)
}

func TestScoreNeutralListingUsesFillers(t *testing.T) {
	listing := &models.CarListing{
		Make:    "Unknown",
		Price:   25500,
		Mileage: 45000,
		Year:    fixedNow.Year() - 6,
	}

	analysis, err := newTestScorer().Score(listing, camryMarket(models.TrendStable))
	require.NoError(t, err)

	assert.Equal(t, 40, analysis.DealScore)
	assert.Equal(t, models.RecommendationPoor, analysis.Recommendation)
	assert.True(t, analysis.PriceAnalysis.IsOverpriced)
	assert.Equal(t, []string{fillerPro}, analysis.Pros)
	assert.Equal(t, []string{fillerCon}, analysis.Cons)
	assert.Equal(t, []string{"The price is within 2.0% of market average, which is reasonable."}, analysis.Reasoning)
}

func TestScoreClamping(t *testing.T) {
	scorer := newTestScorer()

	best := &models.CarListing{
		Make: "Lexus", Price: 10000, Mileage: 1000,
		Year: fixedNow.Year(), Location: "Los Angeles, CA",
	}
	analysis, err := scorer.Score(best, camryMarket(models.TrendDecreasing))
	require.NoError(t, err)
	assert.Equal(t, 100, analysis.DealScore)
	assert.Contains(t, analysis.Pros, "Desirable location")
	assert.Contains(t, analysis.Pros, "Favorable market conditions")

	worst := &models.CarListing{
		Make: "Dodge", Price: 50000, Mileage: 100000, Year: 2000,
	}
	analysis, err = scorer.Score(worst, camryMarket(models.TrendIncreasing))
	require.NoError(t, err)
	assert.Equal(t, 0, analysis.DealScore)
	assert.Equal(t, models.RecommendationPoor, analysis.Recommendation)
	assert.Equal(t, []string{fillerPro}, analysis.Pros)
	assert.Equal(t, []string{
		"Significantly above market average",
		"High mileage for its age",
		"Older model year",
		"Rising market prices",
		"Brand reliability concerns",
	}, analysis.Cons)
}

func TestScoreIsDeterministic(t *testing.T) {
	scorer := newTestScorer()
	listing := &models.CarListing{Make: "Honda", Price: 21000, Mileage: 60000, Year: 2018, Location: "Seattle, WA"}
	market := camryMarket(models.TrendIncreasing)

	first, err := scorer.Score(listing, market)
	require.NoError(t, err)
	second, err := scorer.Score(listing, market)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScoreInvalidMarketData(t *testing.T) {
	listing := &models.CarListing{Make: "Toyota", Price: 20000, Mileage: 30000, Year: 2020}

	tests := []struct {
		name   string
		market *models.MarketComparison
	}{
		{"nil market", nil},
		{"zero average price", &models.MarketComparison{SimilarListings: []models.SimilarListing{{Mileage: 1000}}}},
		{"no similar listings", &models.MarketComparison{AveragePrice: 25000}},
		{"zero mean mileage", &models.MarketComparison{AveragePrice: 25000, SimilarListings: []models.SimilarListing{{Mileage: 0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := newTestScorer().Score(listing, tt.market)
			assert.Nil(t, analysis)
			assert.True(t, errors.Is(err, ErrInvalidMarketData))
		})
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		score int
		want  models.Recommendation
	}{
		{100, models.RecommendationExcellent},
		{85, models.RecommendationExcellent},
		{84, models.RecommendationGood},
		{70, models.RecommendationGood},
		{69, models.RecommendationFair},
		{50, models.RecommendationFair},
		{49, models.RecommendationPoor},
		{0, models.RecommendationPoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Recommend(tt.score), "score %d", tt.score)
	}
}

func TestReliabilityDelta(t *testing.T) {
	assert.Equal(t, 8, reliabilityDelta("Lexus"))
	assert.Equal(t, 6, reliabilityDelta("toyota"))
	assert.Equal(t, -4, reliabilityDelta("Dodge"))
	assert.Equal(t, 0, reliabilityDelta("Unknown"))
}

func TestAgeReasoningPluralization(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{0, "This is a very recent model year (0 years old), which typically commands a premium."},
		{1, "This is a very recent model year (1 year old), which typically commands a premium."},
		{2, "This is a very recent model year (2 years old), which typically commands a premium."},
		{9, "This is an older model year (9 years old), which may require more maintenance and have fewer modern features."},
	}

	for _, tt := range tests {
		out := reasoning(factors{age: tt.age, trend: models.TrendStable}, "Saab")
		assert.Contains(t, out, tt.want)
	}
}
