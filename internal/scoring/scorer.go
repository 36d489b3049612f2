package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/maltedev/car-deal-analyzer/internal/models"
)

var ErrInvalidMarketData = errors.New("invalid market data")

const baseScore = 50

const (
	verdictExcellent = "This is an excellent deal! Strong value for the price with favorable market conditions and good vehicle characteristics."
	verdictGood      = "This is a good deal with fair pricing and reasonable value for your money."
	verdictFair      = "This is a fair deal, but you might want to negotiate or consider other options."
	verdictPoor      = "This deal may not offer the best value. Consider negotiating or looking elsewhere."

	fillerPro = "Vehicle appears to be in good condition"
	fillerCon = "Limited information available"
)

// Scorer turns a listing and its market baseline into a DealAnalysis.
// Output depends only on the inputs and the clock.
type Scorer struct {
	now func() time.Time
}

type Option func(*Scorer)

// WithClock overrides the time source used for vehicle age and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

func New(opts ...Option) *Scorer {
	s := &Scorer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// factors holds the derived inputs every rule reads.
type factors struct {
	priceDiff   int
	pricePct    float64
	mileagePct  float64
	trend       models.MarketTrend
	age         int
	desirable   bool
	reliability int
}

func (s *Scorer) Score(listing *models.CarListing, market *models.MarketComparison) (*models.DealAnalysis, error) {
	if listing == nil || market == nil {
		return nil, fmt.Errorf("%w: missing listing or market comparison", ErrInvalidMarketData)
	}
	if market.AveragePrice == 0 {
		return nil, fmt.Errorf("%w: average price is zero", ErrInvalidMarketData)
	}
	if len(market.SimilarListings) == 0 {
		return nil, fmt.Errorf("%w: no similar listings", ErrInvalidMarketData)
	}
	meanMileage := market.MeanMileage()
	if meanMileage == 0 {
		return nil, fmt.Errorf("%w: mean mileage is zero", ErrInvalidMarketData)
	}

	now := s.now()
	priceDiff := listing.Price - market.AveragePrice
	f := factors{
		priceDiff:   priceDiff,
		pricePct:    float64(priceDiff) * 100 / float64(market.AveragePrice),
		mileagePct:  (float64(listing.Mileage) - meanMileage) * 100 / meanMileage,
		trend:       market.MarketTrend,
		age:         now.Year() - listing.Year,
		desirable:   isDesirableLocation(listing.Location),
		reliability: reliabilityDelta(listing.Make),
	}

	score := dealScore(f)
	rec := Recommend(score)
	pros, cons := prosAndCons(f)

	return &models.DealAnalysis{
		Listing:          *listing,
		MarketComparison: *market,
		DealScore:        score,
		Recommendation:   rec,
		Reasoning:        reasoning(f, listing.Make),
		PriceAnalysis: models.PriceAnalysis{
			IsOverpriced:         priceDiff > 0,
			PriceDifference:      priceDiff,
			PercentageDifference: f.pricePct,
		},
		Pros:         pros,
		Cons:         cons,
		FinalVerdict: Verdict(rec),
		Timestamp:    now,
	}, nil
}

func dealScore(f factors) int {
	score := float64(baseScore)
	score += float64(priceDelta(f.pricePct))
	score += float64(mileageDelta(f.mileagePct))
	score += float64(trendDelta(f.trend))
	score += float64(ageDelta(f.age))
	if f.desirable {
		score += 5
	}
	score += float64(f.reliability)

	return int(math.Round(math.Max(0, math.Min(100, score))))
}

func priceDelta(pct float64) int {
	switch {
	case pct <= -15:
		return 25
	case pct <= -10:
		return 20
	case pct <= -5:
		return 15
	case pct <= 0:
		return 10
	case pct <= 10:
		return -10
	case pct <= 20:
		return -20
	default:
		return -30
	}
}

func mileageDelta(pct float64) int {
	switch {
	case pct <= -30:
		return 15
	case pct <= -20:
		return 10
	case pct <= -10:
		return 5
	case pct >= 30:
		return -15
	case pct >= 20:
		return -10
	case pct >= 10:
		return -5
	default:
		return 0
	}
}

func trendDelta(trend models.MarketTrend) int {
	switch trend {
	case models.TrendDecreasing:
		return 8
	case models.TrendIncreasing:
		return -8
	default:
		return 0
	}
}

func ageDelta(age int) int {
	switch {
	case age <= 1:
		return 8
	case age <= 3:
		return 5
	case age <= 5:
		return 2
	case age >= 10:
		return -8
	case age >= 7:
		return -5
	default:
		return 0
	}
}

// Recommend buckets a deal score.
func Recommend(score int) models.Recommendation {
	switch {
	case score >= 85:
		return models.RecommendationExcellent
	case score >= 70:
		return models.RecommendationGood
	case score >= 50:
		return models.RecommendationFair
	default:
		return models.RecommendationPoor
	}
}

func Verdict(rec models.Recommendation) string {
	switch rec {
	case models.RecommendationExcellent:
		return verdictExcellent
	case models.RecommendationGood:
		return verdictGood
	case models.RecommendationFair:
		return verdictFair
	default:
		return verdictPoor
	}
}
