package scraper

import (
	"context"
	"errors"

	"github.com/maltedev/car-deal-analyzer/internal/fetch"
	"github.com/maltedev/car-deal-analyzer/internal/models"
)

var (
	ErrNotACarListing   = errors.New("URL does not appear to be a car listing")
	ErrFetchFailed      = fetch.ErrFetchFailed
	ErrExtractionFailed = errors.New("could not extract listing data")
)

type Extractor interface {
	Extract(ctx context.Context, url string) (*models.CarListing, error)
	ExtractFromURL(url string) *models.CarListing
}

// Assistant is the optional model-backed helper. *assist.Assistant
// satisfies it.
type Assistant interface {
	URLClassifier
	ExtractListing(ctx context.Context, html, pageURL string) (*models.CarListing, error)
}

type URLClassifier interface {
	IsCarListing(ctx context.Context, url string) (bool, error)
}
