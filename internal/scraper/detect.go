package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

var listingDomains = []string{
	"cars.com", "autotrader.com", "cargurus.com", "carmax.com", "edmunds.com",
	"carsdirect.com", "truecar.com", "carvana.com", "vroom.com", "shift.com",
	"driveway.com", "carfax.com", "kbb.com", "nada.com", "autolist.com",
	"carsforsale.com", "facebook.com", "craigslist.org", "offerup.com", "letgo.com",
}

var listingKeywords = []string{
	"car", "vehicle", "auto", "truck", "suv", "sedan", "hatchback", "wagon",
}

// Detector decides whether a URL is plausibly a vehicle listing.
type Detector struct {
	classifier URLClassifier
	logger     *slog.Logger
}

func NewDetector(classifier URLClassifier, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		classifier: classifier,
		logger:     logger.With("component", "listing_detector"),
	}
}

// IsCarListing checks known marketplace domains, then URL keywords, then
// the classifier if one is configured.
func (d *Detector) IsCarListing(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}

	if IsListingDomain(u.Hostname()) {
		return true
	}

	lower := strings.ToLower(rawURL)
	for _, kw := range listingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	if d.classifier == nil {
		return false
	}

	ok, err := d.classifier.IsCarListing(ctx, rawURL)
	if err != nil {
		d.logger.Warn("listing classification failed", "url", rawURL, "error", err)
		return false
	}
	return ok
}

// IsListingDomain matches host against known marketplaces, including their
// subdomains.
func IsListingDomain(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, domain := range listingDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
