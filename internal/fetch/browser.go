package fetch

import (
	"context"
	"fmt"
)

// PageRenderer is satisfied by *browser.Browser.
type PageRenderer interface {
	Content(ctx context.Context, url string) (string, error)
}

type BrowserFetcher struct {
	renderer PageRenderer
}

func NewBrowserFetcher(r PageRenderer) *BrowserFetcher {
	return &BrowserFetcher{renderer: r}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	html, err := f.renderer.Content(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: browser: %w", ErrFetchFailed, err)
	}
	return html, nil
}
