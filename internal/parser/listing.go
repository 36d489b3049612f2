package parser

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/car-deal-analyzer/internal/models"
)

const (
	UnknownLocation    = "Unknown Location"
	DefaultDescription = "Well-maintained vehicle with good features."

	maxDescriptionLen = 500
	maxImages         = 5
)

// Selectors lists CSS candidates per field. The first candidate that yields
// a usable value wins.
type Selectors struct {
	Title       []string
	Price       []string
	Mileage     []string
	Location    []string
	Description []string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Title: []string{
			"h1", ".vehicle-title", ".car-title", ".listing-title",
			`[class*="title"]`, `[class*="heading"]`, ".product-title",
			".item-title", ".vehicle-name", ".car-name",
		},
		Price: []string{
			".price", ".vehicle-price", ".car-price", `[class*="price"]`,
			`[data-testid*="price"]`, ".amount", ".cost", ".listing-price", ".sale-price",
		},
		Mileage: []string{
			".mileage", ".vehicle-mileage", ".car-mileage", `[class*="mileage"]`,
			`[data-testid*="mileage"]`, ".odometer", ".miles",
		},
		Location: []string{
			".location", ".dealer-location", ".seller-location",
			`[class*="location"]`, ".address", ".city",
		},
		Description: []string{
			".description", ".vehicle-description", ".car-description",
			`[class*="description"]`, ".details", ".features",
		},
	}
}

type CarParser struct {
	selectors Selectors
	now       func() time.Time
}

type Option func(*CarParser)

func WithSelectors(s Selectors) Option {
	return func(p *CarParser) {
		p.selectors = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *CarParser) {
		p.now = now
	}
}

func NewCarParser(opts ...Option) *CarParser {
	p := &CarParser{
		selectors: DefaultSelectors(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *CarParser) ParseListing(html string, pageURL string) (*models.CarListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := p.firstText(doc, p.selectors.Title, 5)
	price, hasPrice := p.extractPrice(doc)
	if title == "" && !hasPrice {
		return nil, ErrNoListingData
	}

	listing := models.NewCarListing(pageURL)
	listing.Source = models.SourcePage
	listing.Title = title

	p.Identify(listing, title, pageURL)

	if hasPrice {
		listing.Price = price
	} else {
		listing.Price = BasePrice(listing.Make, listing.Model)
		listing.MarkEstimated("price")
	}

	if mileage, ok := p.extractMileage(doc); ok {
		listing.Mileage = mileage
	} else {
		listing.Mileage = DefaultMileage
		listing.MarkEstimated("mileage")
	}

	listing.Location = p.firstText(doc, p.selectors.Location, 2)
	if listing.Location == "" {
		listing.Location = UnknownLocation
	}

	listing.Description = p.firstText(doc, p.selectors.Description, 20)
	if listing.Description == "" {
		listing.Description = DefaultDescription
	} else if len(listing.Description) > maxDescriptionLen {
		listing.Description = truncate(listing.Description, maxDescriptionLen)
	}

	listing.Images = p.extractImages(doc, pageURL)

	if listing.Title == "" {
		listing.Title = fmt.Sprintf("%d %s %s", listing.Year, listing.Make, listing.Model)
	}

	return listing, nil
}

// Identify fills year, make and model from the title, falling back to the
// URL. Anything that cannot be inferred gets a default and is marked
// estimated.
func (p *CarParser) Identify(listing *models.CarListing, title, pageURL string) {
	currentYear := p.now().Year()

	if year, ok := ParseYear(title, currentYear); ok {
		listing.Year = year
	} else if year, ok := ParseYear(pageURL, currentYear); ok {
		listing.Year = year
	} else {
		listing.Year = currentYear
		listing.MarkEstimated("year")
	}

	source := title
	carMake, ok := MatchMake(title)
	if !ok {
		source = pageURL
		carMake, ok = MatchMake(pageURL)
	}
	if !ok {
		listing.Make = DefaultMake
		listing.Model = DefaultModel
		listing.MarkEstimated("make")
		listing.MarkEstimated("model")
		return
	}

	listing.Make = carMake
	if model, found := MatchModel(carMake, source); found {
		listing.Model = model
		return
	}
	if source != pageURL {
		if model, found := MatchModel(carMake, pageURL); found {
			listing.Model = model
			return
		}
	}
	listing.Model = GuessModel(carMake, source)
	listing.MarkEstimated("model")
}

// firstText returns the first selector text longer than minLen characters.
func (p *CarParser) firstText(doc *goquery.Document, selectors []string, minLen int) string {
	for _, selector := range selectors {
		text := collapseSpace(doc.Find(selector).First().Text())
		if len(text) > minLen {
			return text
		}
	}
	return ""
}

func (p *CarParser) extractPrice(doc *goquery.Document) (int, bool) {
	for _, selector := range p.selectors.Price {
		if price, ok := ParsePrice(doc.Find(selector).First().Text()); ok {
			return price, true
		}
	}
	return LargestDollarAmount(doc.Find("body").Text())
}

func (p *CarParser) extractMileage(doc *goquery.Document) (int, bool) {
	for _, selector := range p.selectors.Mileage {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if mileage, ok := ParseMileage(text); ok {
			return mileage, true
		}
	}
	return 0, false
}

func (p *CarParser) extractImages(doc *goquery.Document, pageURL string) []string {
	images := make([]string, 0, maxImages)
	base, _ := url.Parse(pageURL)

	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		src, exists := s.Attr("src")
		if !exists || src == "" {
			return true
		}
		alt, _ := s.Attr("alt")
		hint := strings.ToLower(src + " " + alt)
		if !strings.Contains(hint, "car") && !strings.Contains(hint, "vehicle") {
			return true
		}
		images = append(images, resolve(base, src))
		return len(images) < maxImages
	})

	return images
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
