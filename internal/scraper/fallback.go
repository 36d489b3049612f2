package scraper

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/maltedev/car-deal-analyzer/internal/jitter"
	"github.com/maltedev/car-deal-analyzer/internal/models"
	"github.com/maltedev/car-deal-analyzer/internal/parser"
)

const (
	priceSpread   = 0.20
	mileageSpread = 0.15

	placeholderImage = "https://via.placeholder.com/400x300/0ea5e9/ffffff?text="
)

// ExtractFromURL synthesizes a plausible listing from the URL alone. It never
// fails; every field it could not read is listed in EstimatedFields.
func (s *Service) ExtractFromURL(rawURL string) *models.CarListing {
	listing := models.NewCarListing(rawURL)
	listing.Source = models.SourceURLPattern

	currentYear := s.now().Year()
	if year, ok := parser.ParseYear(rawURL, currentYear); ok {
		listing.Year = year
	} else {
		listing.Year = currentYear
		listing.MarkEstimated("year")
	}

	if carMake, ok := parser.MatchMake(rawURL); ok {
		listing.Make = carMake
		if model, found := parser.MatchModel(carMake, rawURL); found {
			listing.Model = model
		} else {
			listing.Model = parser.GuessModel(carMake, rawURL)
			listing.MarkEstimated("model")
		}
	} else {
		s.logger.Warn("could not infer make from URL", "url", rawURL)
		listing.Make = parser.DefaultMake
		listing.Model = parser.DefaultModel
		listing.MarkEstimated("make")
		listing.MarkEstimated("model")
	}

	listing.Price = jitter.Apply(s.rand, parser.BasePrice(listing.Make, listing.Model), priceSpread)
	listing.MarkEstimated("price")
	listing.Mileage = jitter.Apply(s.rand, parser.DefaultMileage, mileageSpread)
	listing.MarkEstimated("mileage")

	listing.Title = fmt.Sprintf("%d %s %s", listing.Year, listing.Make, listing.Model)
	listing.Location = parser.UnknownLocation
	listing.Description = fmt.Sprintf("Well-maintained %d %s %s with %s miles.",
		listing.Year, listing.Make, listing.Model, formatThousands(listing.Mileage))
	listing.Images = []string{placeholderImage + url.PathEscape(listing.Make+" "+listing.Model)}

	return listing
}

func formatThousands(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + formatThousands(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
