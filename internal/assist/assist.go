// Package assist uses a language model to vet listing URLs and pull vehicle
// fields out of pages the selector parser struggles with.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/maltedev/car-deal-analyzer/internal/models"
	"github.com/maltedev/car-deal-analyzer/internal/parser"
)

const maxPromptContent = 4000

var ErrInvalidExtraction = errors.New("model returned unusable listing data")

// LLM is the subset of langchaingo models the assistant needs.
type LLM interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

type Config struct {
	Provider string // "openai" or "ollama"
	APIKey   string
	BaseURL  string
	Model    string
}

type Assistant struct {
	llm       LLM
	converter *md.Converter
	now       func() time.Time
	logger    *slog.Logger
}

func New(llm LLM, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		llm:       llm,
		converter: md.NewConverter("", true, nil),
		now:       time.Now,
		logger:    logger.With("component", "assistant"),
	}
}

// NewFromConfig builds the model client for the configured provider.
func NewFromConfig(cfg Config, logger *slog.Logger) (*Assistant, error) {
	var (
		llm LLM
		err error
	)

	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{openai.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		llm, err = ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init %s model: %w", cfg.Provider, err)
	}

	return New(llm, logger), nil
}

// IsCarListing asks the model whether url points at a single vehicle offer.
func (a *Assistant) IsCarListing(ctx context.Context, url string) (bool, error) {
	prompt := fmt.Sprintf(`Does this URL point to a page listing a single car or vehicle for sale? `+
		`Return ONLY JSON { "isCarListing": boolean }. URL: %s`, url)

	res, err := a.llm.Call(ctx, prompt, llms.WithJSONMode(), llms.WithTemperature(0))
	if err != nil {
		return false, fmt.Errorf("llm call failed: %w", err)
	}

	body := stripFences(res)
	var out struct {
		IsCarListing bool `json:"isCarListing"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		if b, perr := strconv.ParseBool(strings.TrimSpace(body)); perr == nil {
			return b, nil
		}
		return false, fmt.Errorf("failed to decode llm answer: %w", err)
	}
	return out.IsCarListing, nil
}

type extraction struct {
	Title       string  `json:"title"`
	Price       flexInt `json:"price"`
	Year        flexInt `json:"year"`
	Make        string  `json:"make"`
	Model       string  `json:"model"`
	Mileage     optionalInt `json:"mileage"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
}

// ExtractListing converts the page to Markdown and asks the model for the
// vehicle fields. Results missing title, price, year or make are rejected.
func (a *Assistant) ExtractListing(ctx context.Context, html, pageURL string) (*models.CarListing, error) {
	content, err := a.converter.ConvertString(html)
	if err != nil {
		return nil, fmt.Errorf("md conversion error: %w", err)
	}
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}

	prompt := fmt.Sprintf(`Extract the car listing details from this page. `+
		`Return ONLY JSON { "title": string, "price": number, "year": number, "make": string, `+
		`"model": string, "mileage": number, "location": string, "description": string }. `+
		`Use null for anything not present. URL: %s Content: %s`, pageURL, content)

	res, err := a.llm.Call(ctx, prompt, llms.WithJSONMode(), llms.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}

	var out extraction
	if err := json.Unmarshal([]byte(stripFences(res)), &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExtraction, err)
	}

	listing, err := a.toListing(out, pageURL)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("listing extracted by model", "url", pageURL, "make", listing.Make, "model", listing.Model)
	return listing, nil
}

func (a *Assistant) toListing(out extraction, pageURL string) (*models.CarListing, error) {
	currentYear := a.now().Year()

	switch {
	case strings.TrimSpace(out.Title) == "":
		return nil, fmt.Errorf("%w: missing title", ErrInvalidExtraction)
	case out.Price < parser.MinPrice || out.Price > parser.MaxPrice:
		return nil, fmt.Errorf("%w: price %d out of range", ErrInvalidExtraction, out.Price)
	case out.Year < parser.MinYear || int(out.Year) > currentYear+1:
		return nil, fmt.Errorf("%w: year %d out of range", ErrInvalidExtraction, out.Year)
	case strings.TrimSpace(out.Make) == "":
		return nil, fmt.Errorf("%w: missing make", ErrInvalidExtraction)
	}

	listing := models.NewCarListing(pageURL)
	listing.Source = models.SourceAI
	listing.Title = strings.TrimSpace(out.Title)
	listing.Price = int(out.Price)
	listing.Year = int(out.Year)
	listing.Make = strings.TrimSpace(out.Make)
	if known, ok := parser.MatchMake(listing.Make); ok {
		listing.Make = known
	}

	listing.Model = strings.TrimSpace(out.Model)
	if listing.Model == "" {
		listing.Model = parser.GuessModel(listing.Make, listing.Title)
		listing.MarkEstimated("model")
	}

	if out.Mileage.Valid && out.Mileage.Value >= 0 && out.Mileage.Value <= parser.MaxMileage {
		listing.Mileage = out.Mileage.Value
	} else {
		listing.Mileage = parser.DefaultMileage
		listing.MarkEstimated("mileage")
	}

	listing.Location = strings.TrimSpace(out.Location)
	if listing.Location == "" {
		listing.Location = parser.UnknownLocation
	}
	listing.Description = strings.TrimSpace(out.Description)
	if listing.Description == "" {
		listing.Description = parser.DefaultDescription
	}

	return listing, nil
}

// flexInt accepts numbers, numeric strings like "$22,500" and null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	n, _, err := parseFlexInt(b)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// optionalInt is a flexInt that remembers whether a number was present, so
// an explicit 0 differs from null.
type optionalInt struct {
	Value int
	Valid bool
}

func (o *optionalInt) UnmarshalJSON(b []byte) error {
	n, ok, err := parseFlexInt(b)
	if err != nil {
		return err
	}
	o.Value, o.Valid = n, ok
	return nil
}

func parseFlexInt(b []byte) (int, bool, error) {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return 0, false, nil
	}

	s = strings.Trim(s, `"`)
	var digits strings.Builder
	for _, r := range s {
		if r == '.' {
			break
		}
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false, nil
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
