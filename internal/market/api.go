package market

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/maltedev/car-deal-analyzer/internal/models"
)

const DefaultAPITimeout = 5 * time.Second

// Base URLs of the supported pricing APIs.
var KnownAPIs = map[string]string{
	"kbb":      "https://api.kbb.com",
	"nada":     "https://api.nadaguides.com",
	"edmunds":  "https://api.edmunds.com",
	"cargurus": "https://api.cargurus.com",
}

// APIPriority is the order in which answers from pricing APIs are preferred.
var APIPriority = []string{"kbb", "nada", "edmunds", "cargurus"}

type APIConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Params are added to every request, e.g. a default zip code.
	Params map[string]string
}

// APIProvider talks to a pricing API of the form
// GET {base}/v1/vehicle/pricing?make=&model=&year=&api_key=.
type APIProvider struct {
	name   string
	client *resty.Client
	apiKey string
	params map[string]string
	now    func() time.Time
}

type pricingResponse struct {
	Pricing *struct {
		Average int `json:"average"`
		Low     int `json:"low"`
		High    int `json:"high"`
		Trend   any `json:"trend"`
	} `json:"pricing"`
	Similar []models.SimilarListing `json:"similar"`
}

func NewAPIProvider(cfg APIConfig) *APIProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAPITimeout
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &APIProvider{
		name:   cfg.Name,
		client: client,
		apiKey: cfg.APIKey,
		params: cfg.Params,
		now:    time.Now,
	}
}

func (p *APIProvider) Name() string { return p.name }

func (p *APIProvider) Comparison(ctx context.Context, carMake, carModel string) (*models.MarketComparison, error) {
	var body pricingResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(p.params).
		SetQueryParams(map[string]string{
			"make":    carMake,
			"model":   carModel,
			"year":    strconv.Itoa(p.now().Year()),
			"api_key": p.apiKey,
		}).
		SetResult(&body).
		Get("/v1/vehicle/pricing")
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s returned status %d", p.name, resp.StatusCode())
	}
	if body.Pricing == nil {
		return nil, fmt.Errorf("%w: %s response has no pricing", ErrNoData, p.name)
	}

	similar := body.Similar
	if similar == nil {
		similar = []models.SimilarListing{}
	}

	return &models.MarketComparison{
		AveragePrice: body.Pricing.Average,
		PriceRange: models.PriceRange{
			Min: body.Pricing.Low,
			Max: body.Pricing.High,
		},
		MarketTrend:     NormalizeTrend(body.Pricing.Trend),
		SimilarListings: similar,
		Source:          p.name,
	}, nil
}

// NewAPIProviders builds providers for every known API that has a key, in
// APIPriority order.
func NewAPIProviders(keys map[string]string, timeout time.Duration) []Provider {
	var providers []Provider
	for _, name := range APIPriority {
		key := keys[name]
		if key == "" {
			continue
		}
		cfg := APIConfig{
			Name:    name,
			BaseURL: KnownAPIs[name],
			APIKey:  key,
			Timeout: timeout,
		}
		if name == "kbb" {
			cfg.Params = map[string]string{"zip": "90210"}
		}
		providers = append(providers, NewAPIProvider(cfg))
	}
	return providers
}
