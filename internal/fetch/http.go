package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	MaxTimeout   = 30 * time.Second
	MaxRedirects = 5
)

type HTTPOptions struct {
	Timeout        time.Duration
	MaxRedirects   int
	UserAgent      string
	AcceptLanguage string
}

func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:        15 * time.Second,
		MaxRedirects:   MaxRedirects,
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage: "en-US,en;q=0.5",
	}
}

// HTTPFetcher performs a single browser-like GET per call.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 || opts.Timeout > MaxTimeout {
		opts.Timeout = MaxTimeout
	}
	if opts.MaxRedirects < 0 || opts.MaxRedirects > MaxRedirects {
		opts.MaxRedirects = MaxRedirects
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(opts.MaxRedirects)).
		SetHeaders(map[string]string{
			"User-Agent":                opts.UserAgent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           opts.AcceptLanguage,
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
			"Cache-Control":             "no-cache",
			"Pragma":                    "no-cache",
		})

	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	if status := resp.StatusCode(); status < 200 || status >= 400 {
		return "", fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, status)
	}

	return resp.String(), nil
}
