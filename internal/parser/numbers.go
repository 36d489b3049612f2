package parser

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MinPrice   = 1000
	MaxPrice   = 500000
	MinMileage = 0
	MaxMileage = 500000
	MinYear    = 1900
)

var (
	dollarPattern  = regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})+|\d+)`)
	numberPattern  = regexp.MustCompile(`\d{1,3}(?:,\d{3})+|\d+`)
	mileagePattern = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+|\d+)\s*(?:miles?|mi)\b`)
	yearPattern    = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)
)

func atoi(token string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(token, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

func inRange(n, lo, hi int) bool {
	return n >= lo && n <= hi
}

// ParsePrice reads a listing price from free text. Dollar amounts are
// preferred over bare numbers and values outside [MinPrice, MaxPrice] are
// skipped.
func ParsePrice(text string) (int, bool) {
	for _, m := range dollarPattern.FindAllStringSubmatch(text, -1) {
		if n, ok := atoi(m[1]); ok && inRange(n, MinPrice, MaxPrice) {
			return n, true
		}
	}
	for _, token := range numberPattern.FindAllString(text, -1) {
		if n, ok := atoi(token); ok && inRange(n, MinPrice, MaxPrice) {
			return n, true
		}
	}
	return 0, false
}

// LargestDollarAmount returns the biggest in-range dollar amount in text.
func LargestDollarAmount(text string) (int, bool) {
	best, found := 0, false
	for _, m := range dollarPattern.FindAllStringSubmatch(text, -1) {
		if n, ok := atoi(m[1]); ok && inRange(n, MinPrice, MaxPrice) && n > best {
			best, found = n, true
		}
	}
	return best, found
}

// ParseMileage reads an odometer value, preferring "N miles" forms.
func ParseMileage(text string) (int, bool) {
	for _, m := range mileagePattern.FindAllStringSubmatch(text, -1) {
		if n, ok := atoi(m[1]); ok && inRange(n, MinMileage, MaxMileage) {
			return n, true
		}
	}
	for _, token := range numberPattern.FindAllString(text, -1) {
		if n, ok := atoi(token); ok && inRange(n, MinMileage, MaxMileage) {
			return n, true
		}
	}
	return 0, false
}

// ParseYear returns the first model year in text that is not after
// currentYear+1.
func ParseYear(text string, currentYear int) (int, bool) {
	for _, m := range yearPattern.FindAllStringSubmatch(text, -1) {
		if n, ok := atoi(m[1]); ok && inRange(n, MinYear, currentYear+1) {
			return n, true
		}
	}
	return 0, false
}
