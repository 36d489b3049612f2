package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultZyteEndpoint = "https://api.zyte.com/v1/extract"

type zyteRequest struct {
	URL         string `json:"url"`
	BrowserHTML bool   `json:"browserHtml"`
}

type zyteResponse struct {
	URL         string `json:"url"`
	StatusCode  int    `json:"statusCode"`
	BrowserHTML string `json:"browserHtml"`
}

// ZyteFetcher renders pages through the Zyte extraction API.
type ZyteFetcher struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

func NewZyteFetcher(apiKey, endpoint string, timeout time.Duration) *ZyteFetcher {
	if endpoint == "" {
		endpoint = DefaultZyteEndpoint
	}
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	return &ZyteFetcher{
		client:   resty.New().SetTimeout(timeout),
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

func (f *ZyteFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var out zyteResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetBasicAuth(f.apiKey, "").
		SetHeader("Content-Type", "application/json").
		SetBody(zyteRequest{URL: url, BrowserHTML: true}).
		SetResult(&out).
		Post(f.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: zyte request: %w", ErrFetchFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: zyte status %d", ErrFetchFailed, resp.StatusCode())
	}
	if out.StatusCode >= 400 {
		return "", fmt.Errorf("%w: target status %d", ErrFetchFailed, out.StatusCode)
	}
	if out.BrowserHTML == "" {
		return "", fmt.Errorf("%w: zyte returned no HTML", ErrFetchFailed)
	}

	return out.BrowserHTML, nil
}
