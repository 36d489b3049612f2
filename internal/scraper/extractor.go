package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/maltedev/car-deal-analyzer/internal/fetch"
	"github.com/maltedev/car-deal-analyzer/internal/jitter"
	"github.com/maltedev/car-deal-analyzer/internal/models"
	"github.com/maltedev/car-deal-analyzer/internal/parser"
)

type Options struct {
	// RequireListingURL rejects URLs the detector does not recognise.
	RequireListingURL bool
	Assistant         Assistant
	Rand              jitter.Source
	Now               func() time.Time
}

// Service turns a listing URL into a CarListing.
type Service struct {
	fetcher   fetch.Fetcher
	parser    parser.Parser
	detector  *Detector
	assistant Assistant
	requireOK bool
	rand      jitter.Source
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(fetcher fetch.Fetcher, p parser.Parser, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Rand == nil {
		opts.Rand = jitter.NewSource(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		fetcher:   fetcher,
		parser:    p,
		detector:  NewDetector(opts.Assistant, logger),
		assistant: opts.Assistant,
		requireOK: opts.RequireListingURL,
		rand:      opts.Rand,
		now:       opts.Now,
		logger:    logger.With("component", "listing_extractor"),
	}
}

func (s *Service) Extract(ctx context.Context, rawURL string) (*models.CarListing, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: malformed URL %q", ErrNotACarListing, rawURL)
	}

	if s.requireOK && !s.detector.IsCarListing(ctx, rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrNotACarListing, rawURL)
	}

	html, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if !errors.Is(err, ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		return nil, err
	}

	if s.assistant != nil {
		listing, err := s.assistant.ExtractListing(ctx, html, rawURL)
		if err == nil {
			s.logger.Info("listing extracted", "url", rawURL, "source", listing.Source)
			return listing, nil
		}
		s.logger.Debug("assistant extraction unusable, using selectors", "url", rawURL, "error", err)
	}

	listing, err := s.parser.ParseListing(html, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	s.logger.Info("listing extracted",
		"url", rawURL,
		"source", listing.Source,
		"make", listing.Make,
		"model", listing.Model,
		"estimated", listing.EstimatedFields,
	)
	return listing, nil
}
