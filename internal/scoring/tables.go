package scoring

import "strings"

var desirableCities = []string{
	"los angeles", "san francisco", "san diego", "new york", "chicago",
	"miami", "seattle", "portland", "denver", "austin", "dallas",
	"houston", "phoenix", "las vegas", "atlanta", "boston", "washington",
}

// brandReliability rates makes on a 1-10 scale. Unknown makes rate 5.
var brandReliability = map[string]int{
	"toyota":     8,
	"honda":      8,
	"lexus":      9,
	"mazda":      7,
	"subaru":     7,
	"bmw":        5,
	"mercedes":   5,
	"audi":       4,
	"volkswagen": 4,
	"ford":       6,
	"chevrolet":  5,
	"dodge":      3,
	"jeep":       3,
	"nissan":     5,
	"hyundai":    6,
	"kia":        6,
	"acura":      7,
	"infiniti":   5,
	"buick":      6,
	"cadillac":   4,
	"lincoln":    5,
}

const neutralReliability = 5

func isDesirableLocation(location string) bool {
	loc := strings.ToLower(location)
	for _, city := range desirableCities {
		if strings.Contains(loc, city) {
			return true
		}
	}
	return false
}

// reliabilityDelta maps the 1-10 rating onto a score delta in [-10, +8].
func reliabilityDelta(carMake string) int {
	rating, ok := brandReliability[strings.ToLower(strings.TrimSpace(carMake))]
	if !ok {
		rating = neutralReliability
	}
	return (rating - neutralReliability) * 2
}
