package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchMake(t *testing.T) {
	carMake, ok := MatchMake("Used 2019 HONDA Accord EX")
	assert.True(t, ok)
	assert.Equal(t, "Honda", carMake)

	carMake, ok = MatchMake("https://example.com/blog/post")
	assert.False(t, ok)
	assert.Empty(t, carMake)

	carMake, ok = MatchMake("Alfa Romeo Giulia")
	assert.True(t, ok)
	assert.Equal(t, "Alfa Romeo", carMake)
}

func TestMatchModel(t *testing.T) {
	tests := []struct {
		name  string
		make  string
		text  string
		want  string
		found bool
	}{
		{"plain", "Toyota", "2020 Toyota RAV4 XLE", "RAV4", true},
		{"dashes removed", "Ford", "/ford-f150-lariat", "F-150", true},
		{"spaces as dashes", "BMW", "/bmw-3-series-330i", "3 Series", true},
		{"spaces removed", "BMW", "/bmw/5series", "5 Series", true},
		{"dashed model", "Honda", "honda cr-v touring", "CR-V", true},
		{"no catalog for make", "Nissan", "nissan altima", "", false},
		{"no match", "Toyota", "toyota supra", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchModel(tt.make, tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuessModel(t *testing.T) {
	assert.Equal(t, "Civic", GuessModel("Honda", "honda civic"))
	assert.Equal(t, "Camry", GuessModel("Toyota", "Toyota Supra"))
	assert.Equal(t, "Altima", GuessModel("Nissan", "https://example.com/nissan-altima-2019"))
	assert.Equal(t, "Model", GuessModel("Tesla", "2022 Tesla Model 3"))
	assert.Equal(t, UnknownModel, GuessModel("Nissan", "nissan"))
}

func TestBasePrice(t *testing.T) {
	assert.Equal(t, 95000, BasePrice("Mercedes", "S-Class"))
	assert.Equal(t, 45000, BasePrice("Ford", "F-150"))
	assert.Equal(t, DefaultBasePrice, BasePrice("Nissan", "Altima"))
	assert.Equal(t, DefaultBasePrice, BasePrice("Toyota", "Prius"))
}
