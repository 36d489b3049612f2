// Package fetch retrieves listing pages as HTML.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrFetchFailed covers network, DNS and HTTP status failures.
var ErrFetchFailed = errors.New("fetch failed")

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

type namedFetcher struct {
	name    string
	fetcher Fetcher
}

// Chain tries fetchers in order and returns the first page that loads. The
// whole attempt shares one deadline, MaxTimeout unless set otherwise.
type Chain struct {
	fetchers []namedFetcher
	timeout  time.Duration
	logger   *slog.Logger
}

func NewChain(logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		timeout: MaxTimeout,
		logger:  logger.With("component", "fetch_chain"),
	}
}

// SetTimeout bounds a whole Fetch across all fetchers. Values outside
// (0, MaxTimeout] fall back to MaxTimeout.
func (c *Chain) SetTimeout(d time.Duration) *Chain {
	if d <= 0 || d > MaxTimeout {
		d = MaxTimeout
	}
	c.timeout = d
	return c
}

func (c *Chain) Add(name string, f Fetcher) *Chain {
	c.fetchers = append(c.fetchers, namedFetcher{name: name, fetcher: f})
	return c
}

func (c *Chain) Len() int {
	return len(c.fetchers)
}

func (c *Chain) Fetch(ctx context.Context, url string) (string, error) {
	if len(c.fetchers) == 0 {
		return "", fmt.Errorf("%w: no fetchers configured", ErrFetchFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var errs []error
	for _, nf := range c.fetchers {
		html, err := nf.fetcher.Fetch(ctx, url)
		if err == nil {
			c.logger.Debug("page fetched", "fetcher", nf.name, "url", url, "bytes", len(html))
			return html, nil
		}

		c.logger.Warn("fetcher failed", "fetcher", nf.name, "url", url, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", nf.name, err))

		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("%w: %w", ErrFetchFailed, errors.Join(errs...))
}
