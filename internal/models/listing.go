package models

import (
	"errors"
	"time"
)

// Provenance values for CarListing.Source.
const (
	SourcePage       = "Page Extraction"
	SourceAI         = "AI Extraction"
	SourceURLPattern = "URL Pattern Extraction"
)

// CarListing is a normalized view of one vehicle offer.
type CarListing struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Price           int      `json:"price"`
	Year            int      `json:"year"`
	Make            string   `json:"make"`
	Model           string   `json:"model"`
	Mileage         int      `json:"mileage"`
	Location        string   `json:"location"`
	Description     string   `json:"description"`
	Images          []string `json:"images"`
	Source          string   `json:"source,omitempty"`
	EstimatedFields []string `json:"estimatedFields,omitempty"`
}

func NewCarListing(url string) *CarListing {
	return &CarListing{
		URL:    url,
		Images: make([]string, 0),
	}
}

// MarkEstimated records that field was filled by a default rather than read.
func (l *CarListing) MarkEstimated(field string) {
	for _, f := range l.EstimatedFields {
		if f == field {
			return
		}
	}
	l.EstimatedFields = append(l.EstimatedFields, field)
}

func (l *CarListing) Validate() []string {
	var errs []string

	if l.URL == "" {
		errs = append(errs, "URL is required")
	}
	if l.Price <= 0 {
		errs = append(errs, "price must be positive")
	}
	if l.Mileage < 0 {
		errs = append(errs, "mileage must not be negative")
	}
	if l.Make == "" || l.Model == "" {
		errs = append(errs, "make and model are required")
	}

	return errs
}

type MarketTrend string

const (
	TrendIncreasing MarketTrend = "increasing"
	TrendDecreasing MarketTrend = "decreasing"
	TrendStable     MarketTrend = "stable"
)

type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type SimilarListing struct {
	Price    int    `json:"price"`
	Mileage  int    `json:"mileage"`
	Location string `json:"location"`
	URL      string `json:"url"`
}

// MarketComparison is the baseline a listing is judged against.
type MarketComparison struct {
	AveragePrice    int              `json:"averagePrice"`
	PriceRange      PriceRange       `json:"priceRange"`
	MarketTrend     MarketTrend      `json:"marketTrend"`
	SimilarListings []SimilarListing `json:"similarListings"`
	Source          string           `json:"source,omitempty"`
}

var ErrInvalidComparison = errors.New("invalid market comparison")

// Validate checks min <= average <= max and that similar listings exist.
func (m *MarketComparison) Validate() error {
	if m.AveragePrice <= 0 {
		return errors.Join(ErrInvalidComparison, errors.New("average price must be positive"))
	}
	if m.PriceRange.Min > m.AveragePrice || m.AveragePrice > m.PriceRange.Max {
		return errors.Join(ErrInvalidComparison, errors.New("average price outside of price range"))
	}
	if len(m.SimilarListings) == 0 {
		return errors.Join(ErrInvalidComparison, errors.New("no similar listings"))
	}
	return nil
}

// MeanMileage returns the arithmetic mean over similar listings, 0 when empty.
func (m *MarketComparison) MeanMileage() float64 {
	if len(m.SimilarListings) == 0 {
		return 0
	}
	var total int
	for _, s := range m.SimilarListings {
		total += s.Mileage
	}
	return float64(total) / float64(len(m.SimilarListings))
}

type Recommendation string

const (
	RecommendationExcellent Recommendation = "excellent"
	RecommendationGood      Recommendation = "good"
	RecommendationFair      Recommendation = "fair"
	RecommendationPoor      Recommendation = "poor"
)

type PriceAnalysis struct {
	IsOverpriced         bool    `json:"isOverpriced"`
	PriceDifference      int     `json:"priceDifference"`
	PercentageDifference float64 `json:"percentageDifference"`
}

type DealAnalysis struct {
	Listing          CarListing       `json:"listing"`
	MarketComparison MarketComparison `json:"marketComparison"`
	DealScore        int              `json:"dealScore"`
	Recommendation   Recommendation   `json:"recommendation"`
	Reasoning        []string         `json:"reasoning"`
	PriceAnalysis    PriceAnalysis    `json:"priceAnalysis"`
	Pros             []string         `json:"pros"`
	Cons             []string         `json:"cons"`
	FinalVerdict     string           `json:"finalVerdict"`
	Timestamp        time.Time        `json:"timestamp"`
}
