package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/car-deal-analyzer/internal/fetch"
	"github.com/maltedev/car-deal-analyzer/internal/jitter"
	"github.com/maltedev/car-deal-analyzer/internal/models"
	"github.com/maltedev/car-deal-analyzer/internal/parser"
)

var testNow = func() time.Time { return time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC) }

const camryPage = `<html><body>
	<h1>2019 Toyota Camry SE</h1>
	<span class="price">$22,500</span>
	<span class="mileage">36,000 mi</span>
</body></html>`

type MockAssistant struct {
	mock.Mock
}

func (m *MockAssistant) IsCarListing(ctx context.Context, url string) (bool, error) {
	args := m.Called(ctx, url)
	return args.Bool(0), args.Error(1)
}

func (m *MockAssistant) ExtractListing(ctx context.Context, html, pageURL string) (*models.CarListing, error) {
	args := m.Called(ctx, html, pageURL)
	listing, _ := args.Get(0).(*models.CarListing)
	return listing, args.Error(1)
}

func staticFetcher(html string, err error) fetch.Fetcher {
	return fetch.FetcherFunc(func(ctx context.Context, url string) (string, error) {
		return html, err
	})
}

func newTestService(f fetch.Fetcher, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = testNow
	}
	if opts.Rand == nil {
		opts.Rand = jitter.Fixed(0.5)
	}
	return NewService(f, parser.NewCarParser(parser.WithClock(opts.Now)), opts, nil)
}

func TestExtract(t *testing.T) {
	svc := newTestService(staticFetcher(camryPage, nil), Options{RequireListingURL: true})

	listing, err := svc.Extract(context.Background(), "https://www.cars.com/vehicledetail/abc/")
	require.NoError(t, err)

	assert.Equal(t, "Toyota", listing.Make)
	assert.Equal(t, "Camry", listing.Model)
	assert.Equal(t, 22500, listing.Price)
	assert.Equal(t, 36000, listing.Mileage)
	assert.Equal(t, 2019, listing.Year)
	assert.Equal(t, models.SourcePage, listing.Source)
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		fetcher fetch.Fetcher
		wantErr error
	}{
		{
			name:    "not a listing",
			url:     "https://example.com/recipes/pasta",
			fetcher: staticFetcher(camryPage, nil),
			wantErr: ErrNotACarListing,
		},
		{
			name:    "malformed URL",
			url:     "not a url",
			fetcher: staticFetcher(camryPage, nil),
			wantErr: ErrNotACarListing,
		},
		{
			name:    "fetch failure",
			url:     "https://www.autotrader.com/cars-for-sale/1",
			fetcher: staticFetcher("", errors.New("dial tcp: no such host")),
			wantErr: ErrFetchFailed,
		},
		{
			name:    "empty page",
			url:     "https://www.cargurus.com/listing/2",
			fetcher: staticFetcher("<html><body><p>Sold</p></body></html>", nil),
			wantErr: ErrExtractionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.fetcher, Options{RequireListingURL: true})
			listing, err := svc.Extract(context.Background(), tt.url)
			assert.Nil(t, listing)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtractWithoutListingCheck(t *testing.T) {
	svc := newTestService(staticFetcher(camryPage, nil), Options{RequireListingURL: false})

	listing, err := svc.Extract(context.Background(), "https://example.com/recipes/pasta")
	require.NoError(t, err)
	assert.Equal(t, "Camry", listing.Model)
}

func TestExtractPrefersAssistant(t *testing.T) {
	aiListing := &models.CarListing{Make: "Toyota", Model: "Camry", Price: 21000, Source: models.SourceAI}

	assistant := new(MockAssistant)
	assistant.On("ExtractListing", mock.Anything, camryPage, "https://cars.com/1").Return(aiListing, nil)

	svc := newTestService(staticFetcher(camryPage, nil), Options{RequireListingURL: true, Assistant: assistant})
	listing, err := svc.Extract(context.Background(), "https://cars.com/1")
	require.NoError(t, err)

	assert.Same(t, aiListing, listing)
	assistant.AssertExpectations(t)
}

func TestExtractFallsBackToSelectorsWhenAssistantFails(t *testing.T) {
	assistant := new(MockAssistant)
	assistant.On("ExtractListing", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("bad json"))

	svc := newTestService(staticFetcher(camryPage, nil), Options{RequireListingURL: true, Assistant: assistant})
	listing, err := svc.Extract(context.Background(), "https://cars.com/1")
	require.NoError(t, err)

	assert.Equal(t, models.SourcePage, listing.Source)
	assert.Equal(t, 22500, listing.Price)
}

func TestExtractFromURL(t *testing.T) {
	svc := newTestService(nil, Options{Rand: jitter.Fixed(0.5)})

	listing := svc.ExtractFromURL("https://www.cars.com/vehicle/2020-honda-accord-sport")

	assert.Equal(t, models.SourceURLPattern, listing.Source)
	assert.Equal(t, "Honda", listing.Make)
	assert.Equal(t, "Accord", listing.Model)
	assert.Equal(t, 2020, listing.Year)
	assert.Equal(t, 24000, listing.Price)
	assert.Equal(t, 45000, listing.Mileage)
	assert.Equal(t, "2020 Honda Accord", listing.Title)
	assert.Equal(t, "Unknown Location", listing.Location)
	assert.Equal(t, "Well-maintained 2020 Honda Accord with 45,000 miles.", listing.Description)
	assert.Equal(t, []string{"https://via.placeholder.com/400x300/0ea5e9/ffffff?text=Honda%20Accord"}, listing.Images)
	assert.ElementsMatch(t, []string{"price", "mileage"}, listing.EstimatedFields)
}

func TestExtractFromURLSlugVariants(t *testing.T) {
	svc := newTestService(nil, Options{})

	tests := []struct {
		url   string
		make  string
		model string
	}{
		{"https://autotrader.com/bmw-3-series-330i", "BMW", "3 Series"},
		{"https://carmax.com/ford/f150/xlt", "Ford", "F-150"},
		{"https://cargurus.com/mercedes-benz-glc-300", "Mercedes", "GLC"},
		{"https://cars.com/nissan-altima-2019", "Nissan", "Altima"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			listing := svc.ExtractFromURL(tt.url)
			assert.Equal(t, tt.make, listing.Make)
			assert.Equal(t, tt.model, listing.Model)
		})
	}
}

func TestExtractFromURLNeverFails(t *testing.T) {
	draws := []float64{0, 0.25, 0.5, 0.999}
	urls := []string{
		"",
		"https://example.com",
		"::::",
		"https://cars.com/" + strings.Repeat("x", 500),
	}

	for _, draw := range draws {
		svc := newTestService(nil, Options{Rand: jitter.Fixed(draw)})
		for _, u := range urls {
			listing := svc.ExtractFromURL(u)
			require.NotNil(t, listing)
			assert.Greater(t, listing.Price, 0)
			assert.GreaterOrEqual(t, listing.Mileage, 0)
			assert.Equal(t, parser.DefaultMake, listing.Make)
			assert.Equal(t, parser.DefaultModel, listing.Model)
			assert.Equal(t, 2026, listing.Year)
			assert.Contains(t, listing.EstimatedFields, "make")
		}
	}
}

func TestExtractFromURLJitterBounds(t *testing.T) {
	svc := newTestService(nil, Options{Rand: jitter.NewSource(99)})
	for i := 0; i < 200; i++ {
		listing := svc.ExtractFromURL("https://cars.com/toyota-tacoma")
		assert.InDelta(t, 35000, listing.Price, 35000*0.2+1)
		assert.InDelta(t, 45000, listing.Mileage, 45000*0.15+1)
	}
}

func TestDetector(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.cars.com/vehicledetail/1/", true},
		{"https://sfbay.craigslist.org/cto/d/123.html", true},
		{"https://example.com/used-trucks/ram", true},
		{"https://example.com/suv/for-sale", true},
		{"https://example.com/recipes/pasta", false},
		{"https://notcars.com.evil.io/pasta", true},
		{"not a url", false},
	}

	d := NewDetector(nil, nil)
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, d.IsCarListing(context.Background(), tt.url))
		})
	}
}

func TestDetectorAsksClassifier(t *testing.T) {
	assistant := new(MockAssistant)
	assistant.On("IsCarListing", mock.Anything, "https://example.com/listing/77").Return(true, nil)
	assistant.On("IsCarListing", mock.Anything, "https://example.com/blog/1").Return(false, errors.New("timeout"))

	d := NewDetector(assistant, nil)
	assert.True(t, d.IsCarListing(context.Background(), "https://example.com/listing/77"))
	assert.False(t, d.IsCarListing(context.Background(), "https://example.com/blog/1"))
	assistant.AssertExpectations(t)
}

func TestIsListingDomain(t *testing.T) {
	assert.True(t, IsListingDomain("cars.com"))
	assert.True(t, IsListingDomain("www.CarGurus.com"))
	assert.False(t, IsListingDomain("mycars.com"))
	assert.False(t, IsListingDomain("cars.com.example.org"))
}

func TestFormatThousands(t *testing.T) {
	assert.Equal(t, "0", formatThousands(0))
	assert.Equal(t, "999", formatThousands(999))
	assert.Equal(t, "45,000", formatThousands(45000))
	assert.Equal(t, "1,234,567", formatThousands(1234567))
}
