package parser

import (
	"regexp"
	"strings"
)

const (
	DefaultMake      = "Toyota"
	DefaultModel     = "Camry"
	DefaultBasePrice = 25000
	DefaultMileage   = 45000
	UnknownModel     = "Vehicle"
)

// Makes is searched in order; the first case-insensitive hit wins.
var Makes = []string{
	"Toyota", "Honda", "Ford", "Chevrolet", "Nissan", "BMW", "Mercedes", "Audi",
	"Volkswagen", "Hyundai", "Kia", "Mazda", "Subaru", "Jeep", "Dodge", "Chrysler",
	"Lexus", "Acura", "Infiniti", "Cadillac", "Buick", "Lincoln", "Pontiac", "Saturn",
	"Volvo", "Saab", "Fiat", "Alfa Romeo", "Jaguar", "Land Rover", "Mini",
	"Smart", "Scion", "Mitsubishi", "Suzuki", "Isuzu", "Daihatsu", "Tesla",
	"Rivian", "Lucid", "Polestar", "Genesis", "Maserati", "Bentley", "Rolls-Royce",
	"Aston Martin", "McLaren", "Ferrari", "Lamborghini", "Porsche", "Bugatti",
}

var modelsByMake = map[string][]string{
	"Toyota":   {"Camry", "Corolla", "Prius", "RAV4", "Highlander", "Tacoma", "Tundra", "Sienna", "Avalon", "Venza"},
	"Honda":    {"Civic", "Accord", "CR-V", "Pilot", "Odyssey", "HR-V", "Passport", "Ridgeline", "Insight", "Clarity"},
	"Ford":     {"F-150", "F-250", "F-350", "Mustang", "Explorer", "Escape", "Edge", "Expedition", "Ranger", "Bronco"},
	"BMW":      {"3 Series", "5 Series", "X3", "X5", "X7", "M3", "M5", "i3", "i4", "iX"},
	"Mercedes": {"C-Class", "E-Class", "S-Class", "GLC", "GLE", "GLS", "AMG", "CLA", "CLS", "GLA"},
}

var basePrices = map[string]map[string]int{
	"Toyota":   {"Camry": 25000, "Tacoma": 35000, "RAV4": 28000, "Corolla": 22000},
	"Honda":    {"Civic": 22000, "Accord": 24000, "CR-V": 28000, "Pilot": 35000},
	"Ford":     {"F-150": 45000, "Mustang": 30000, "Explorer": 35000, "Escape": 25000},
	"BMW":      {"3 Series": 35000, "5 Series": 55000, "X3": 45000, "X5": 65000},
	"Mercedes": {"C-Class": 45000, "E-Class": 55000, "S-Class": 95000, "GLC": 45000},
}

// MatchMake returns the first catalog make contained in text.
func MatchMake(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, carMake := range Makes {
		if strings.Contains(lower, strings.ToLower(carMake)) {
			return carMake, true
		}
	}
	return "", false
}

// ModelsFor lists the catalog models of a make, nil when the make has none.
func ModelsFor(carMake string) []string {
	return modelsByMake[carMake]
}

// MatchModel looks for one of the make's catalog models in text. Models are
// also matched without spaces, with spaces as dashes and without dashes so
// URL slugs such as "3-series" or "f150" resolve.
func MatchModel(carMake, text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, model := range modelsByMake[carMake] {
		for _, variant := range modelVariants(model) {
			if strings.Contains(lower, variant) {
				return model, true
			}
		}
	}
	return "", false
}

func modelVariants(model string) []string {
	m := strings.ToLower(model)
	return []string{
		m,
		strings.ReplaceAll(m, " ", ""),
		strings.ReplaceAll(m, " ", "-"),
		strings.ReplaceAll(m, "-", ""),
	}
}

var wordAfterMake = regexp.MustCompile(`^[\s\-_/+]*([A-Za-z][A-Za-z0-9]*(?:-[A-Za-z0-9]{1,2}\b)?)`)

// GuessModel resolves a model for a make from text. Catalog matches win. A
// make with a catalog but no match gets its first model; otherwise the word
// following the make is used.
func GuessModel(carMake, text string) string {
	if model, ok := MatchModel(carMake, text); ok {
		return model
	}
	if models := modelsByMake[carMake]; len(models) > 0 {
		return models[0]
	}

	idx := strings.Index(strings.ToLower(text), strings.ToLower(carMake))
	if idx >= 0 {
		if m := wordAfterMake.FindStringSubmatch(text[idx+len(carMake):]); m != nil {
			return strings.ToUpper(m[1][:1]) + m[1][1:]
		}
	}
	return UnknownModel
}

// BasePrice is the reference price used when a listing has no price.
func BasePrice(carMake, model string) int {
	if price, ok := basePrices[carMake][model]; ok {
		return price
	}
	return DefaultBasePrice
}
