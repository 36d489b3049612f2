package parser

import (
	"errors"

	"github.com/maltedev/car-deal-analyzer/internal/models"
)

// ErrNoListingData is returned when a page yields neither a title nor a price.
var ErrNoListingData = errors.New("no listing data found")

type Parser interface {
	ParseListing(html string, pageURL string) (*models.CarListing, error)
}
