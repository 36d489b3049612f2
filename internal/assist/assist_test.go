package assist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/maltedev/car-deal-analyzer/internal/models"
	"github.com/maltedev/car-deal-analyzer/internal/parser"
)

type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func newTestAssistant(llm LLM) *Assistant {
	a := New(llm, nil)
	a.now = func() time.Time { return time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC) }
	return a
}

func TestIsCarListing(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"json true", `{"isCarListing": true}`, true},
		{"json false", `{"isCarListing": false}`, false},
		{"fenced json", "```json\n{\"isCarListing\": true}\n```", true},
		{"bare boolean", "true", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(MockLLM)
			llm.On("Call", mock.Anything, mock.MatchedBy(func(p string) bool {
				return strings.Contains(p, "2019-camry")
			})).Return(tt.answer, nil)

			got, err := newTestAssistant(llm).IsCarListing(context.Background(), "https://example.com/2019-camry")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			llm.AssertExpectations(t)
		})
	}
}

func TestIsCarListingErrors(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Call", mock.Anything, mock.Anything).Return("", errors.New("unavailable")).Once()
	llm.On("Call", mock.Anything, mock.Anything).Return("maybe", nil).Once()

	a := newTestAssistant(llm)
	_, err := a.IsCarListing(context.Background(), "u")
	assert.Error(t, err)
	_, err = a.IsCarListing(context.Background(), "u")
	assert.Error(t, err)
}

func TestExtractListing(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Call", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Honda Civic") && len(p) < maxPromptContent+1000
	})).Return(`{
		"title": "2021 Honda Civic EX",
		"price": "$21,500",
		"year": 2021,
		"make": "honda",
		"model": "Civic",
		"mileage": 30000,
		"location": "Seattle, WA",
		"description": null
	}`, nil)

	html := "<html><body><h1>2021 Honda Civic EX</h1>" + strings.Repeat("<p>Clean title, one owner.</p>", 500) + "</body></html>"
	listing, err := newTestAssistant(llm).ExtractListing(context.Background(), html, "https://cars.com/1")
	require.NoError(t, err)

	assert.Equal(t, models.SourceAI, listing.Source)
	assert.Equal(t, "2021 Honda Civic EX", listing.Title)
	assert.Equal(t, 21500, listing.Price)
	assert.Equal(t, 2021, listing.Year)
	assert.Equal(t, "Honda", listing.Make)
	assert.Equal(t, "Civic", listing.Model)
	assert.Equal(t, 30000, listing.Mileage)
	assert.Equal(t, "Seattle, WA", listing.Location)
	assert.Equal(t, parser.DefaultDescription, listing.Description)
	assert.Equal(t, "https://cars.com/1", listing.URL)
}

func TestExtractListingDefaultsMileageAndModel(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Call", mock.Anything, mock.Anything).Return(
		`{"title":"2018 Toyota RAV4 LE","price":19999,"year":"2018","make":"Toyota","model":"","mileage":null}`, nil)

	listing, err := newTestAssistant(llm).ExtractListing(context.Background(), "<p>x</p>", "https://cars.com/2")
	require.NoError(t, err)

	assert.Equal(t, "RAV4", listing.Model)
	assert.Equal(t, parser.DefaultMileage, listing.Mileage)
	assert.Equal(t, parser.UnknownLocation, listing.Location)
	assert.ElementsMatch(t, []string{"model", "mileage"}, listing.EstimatedFields)
}

func TestExtractListingKeepsZeroMileage(t *testing.T) {
	tests := []struct {
		name          string
		mileage       string
		wantMileage   int
		wantEstimated bool
	}{
		{"new car", `0`, 0, false},
		{"new car as text", `"0 miles"`, 0, false},
		{"missing", `null`, parser.DefaultMileage, true},
		{"empty text", `""`, parser.DefaultMileage, true},
		{"above range", `900000`, parser.DefaultMileage, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(MockLLM)
			llm.On("Call", mock.Anything, mock.Anything).Return(
				`{"title":"2026 Kia Telluride SX","price":48900,"year":2026,"make":"Kia","model":"Telluride","mileage":`+tt.mileage+`}`, nil)

			listing, err := newTestAssistant(llm).ExtractListing(context.Background(), "<p>x</p>", "https://cars.com/3")
			require.NoError(t, err)

			assert.Equal(t, tt.wantMileage, listing.Mileage)
			if tt.wantEstimated {
				assert.Contains(t, listing.EstimatedFields, "mileage")
			} else {
				assert.NotContains(t, listing.EstimatedFields, "mileage")
			}
		})
	}
}

func TestExtractListingRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"not json", "I could not find a car"},
		{"missing title", `{"price":20000,"year":2020,"make":"Ford"}`},
		{"price out of range", `{"title":"t","price":50,"year":2020,"make":"Ford"}`},
		{"future year", `{"title":"t","price":20000,"year":2035,"make":"Ford"}`},
		{"missing make", `{"title":"t","price":20000,"year":2020}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(MockLLM)
			llm.On("Call", mock.Anything, mock.Anything).Return(tt.answer, nil)

			listing, err := newTestAssistant(llm).ExtractListing(context.Background(), "<p>x</p>", "u")
			assert.Nil(t, listing)
			assert.ErrorIs(t, err, ErrInvalidExtraction)
		})
	}
}

func TestNewFromConfigUnknownProvider(t *testing.T) {
	_, err := NewFromConfig(Config{Provider: "acme"}, nil)
	assert.Error(t, err)
}
