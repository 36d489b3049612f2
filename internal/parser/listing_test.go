package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/car-deal-analyzer/internal/models"
)

func newTestParser() *CarParser {
	return NewCarParser(WithClock(func() time.Time {
		return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	}))
}

func TestParseListing(t *testing.T) {
	html := `<html><body>
		<h1 class="vehicle-title">2019 Toyota Camry SE</h1>
		<div class="price">$22,500</div>
		<div class="mileage">36,000 miles</div>
		<div class="dealer-location">Los Angeles, CA</div>
		<div class="description">One owner, clean history, recent service and new tires all around.</div>
		<img src="/photos/car-front.jpg" alt="front">
		<img src="/logo.png" alt="dealer logo">
		<img src="https://cdn.example.com/1.jpg" alt="Vehicle side view">
	</body></html>`

	listing, err := newTestParser().ParseListing(html, "https://www.cars.com/vehicledetail/123/")
	require.NoError(t, err)

	assert.Equal(t, "2019 Toyota Camry SE", listing.Title)
	assert.Equal(t, 22500, listing.Price)
	assert.Equal(t, 36000, listing.Mileage)
	assert.Equal(t, 2019, listing.Year)
	assert.Equal(t, "Toyota", listing.Make)
	assert.Equal(t, "Camry", listing.Model)
	assert.Equal(t, "Los Angeles, CA", listing.Location)
	assert.Equal(t, models.SourcePage, listing.Source)
	assert.Empty(t, listing.EstimatedFields)
	assert.Equal(t, []string{
		"https://www.cars.com/photos/car-front.jpg",
		"https://cdn.example.com/1.jpg",
	}, listing.Images)
}

func TestParseListingDefaults(t *testing.T) {
	html := `<html><body><h1>Honda Accord EX for sale</h1></body></html>`

	listing, err := newTestParser().ParseListing(html, "https://autotrader.com/x")
	require.NoError(t, err)

	assert.Equal(t, "Honda", listing.Make)
	assert.Equal(t, "Accord", listing.Model)
	assert.Equal(t, 2026, listing.Year)
	assert.Equal(t, 24000, listing.Price)
	assert.Equal(t, DefaultMileage, listing.Mileage)
	assert.Equal(t, UnknownLocation, listing.Location)
	assert.Equal(t, DefaultDescription, listing.Description)
	assert.ElementsMatch(t, []string{"year", "price", "mileage"}, listing.EstimatedFields)
	assert.NotNil(t, listing.Images)
}

func TestParseListingPriceOnly(t *testing.T) {
	html := `<html><body><span class="sale-price">Now $31,000</span></body></html>`

	listing, err := newTestParser().ParseListing(html, "https://carmax.com/car/ford-mustang-2021")
	require.NoError(t, err)

	assert.Equal(t, 31000, listing.Price)
	assert.Equal(t, "Ford", listing.Make)
	assert.Equal(t, "Mustang", listing.Model)
	assert.Equal(t, 2021, listing.Year)
	assert.Equal(t, "2021 Ford Mustang", listing.Title)
}

func TestParseListingPriceFromBody(t *testing.T) {
	html := `<html><body>
		<h1>2020 Mazda CX-5 Touring</h1>
		<p>Doc fee $199. Our price $24,750 plus tax.</p>
	</body></html>`

	listing, err := newTestParser().ParseListing(html, "https://example.com/listing")
	require.NoError(t, err)

	assert.Equal(t, 24750, listing.Price)
	assert.Equal(t, "Mazda", listing.Make)
	assert.Equal(t, "CX-5", listing.Model)
	assert.Contains(t, listing.EstimatedFields, "model")
}

func TestParseListingUnknownMake(t *testing.T) {
	html := `<html><body><h1>Great family wagon</h1><div class="price">$9,999</div></body></html>`

	listing, err := newTestParser().ParseListing(html, "https://example.com/wagon")
	require.NoError(t, err)

	assert.Equal(t, DefaultMake, listing.Make)
	assert.Equal(t, DefaultModel, listing.Model)
	assert.Contains(t, listing.EstimatedFields, "make")
}

func TestParseListingNoData(t *testing.T) {
	html := `<html><body><p>Page not found</p></body></html>`

	listing, err := newTestParser().ParseListing(html, "https://cars.com/missing")
	assert.Nil(t, listing)
	assert.ErrorIs(t, err, ErrNoListingData)
}

func TestParseListingTruncatesDescription(t *testing.T) {
	long := strings.Repeat("clean vehicle ", 60)
	html := `<html><body><h1>2018 Ford Escape SE</h1><div class="description">` + long + `</div></body></html>`

	listing, err := newTestParser().ParseListing(html, "https://cars.com/1")
	require.NoError(t, err)
	assert.Len(t, listing.Description, maxDescriptionLen)
}

func TestParseListingCustomSelectors(t *testing.T) {
	html := `<html><body><div id="t">2017 BMW X5 xDrive35i</div><b id="p">$27,400</b></body></html>`

	p := NewCarParser(WithSelectors(Selectors{Title: []string{"#t"}, Price: []string{"#p"}}))
	listing, err := p.ParseListing(html, "https://cars.com/2")
	require.NoError(t, err)

	assert.Equal(t, "BMW", listing.Make)
	assert.Equal(t, "X5", listing.Model)
	assert.Equal(t, 27400, listing.Price)
}
