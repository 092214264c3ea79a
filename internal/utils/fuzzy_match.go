package utils

import (
	"strings"
	"unicode"
)

// amenityAliases maps a canonical keyword to the spellings listings use for it
var amenityAliases = map[string][]string{
	"wifi":       {"wifi", "wi-fi", "wireless internet", "internet"},
	"pool":       {"swimming pool", "pool"},
	"hot tub":    {"hot tub", "jacuzzi", "spa"},
	"gym":        {"gym", "fitness", "fitness center"},
	"aircon":     {"air conditioner", "air conditioning", "aircon", "a/c", "ac"},
	"heating":    {"heating", "heater", "central heating"},
	"fireplace":  {"fireplace", "wood stove"},
	"washer":     {"washer", "washing machine", "washer/dryer", "laundry"},
	"dryer":      {"dryer", "washer/dryer"},
	"parking":    {"parking", "garage", "car park", "free parking"},
	"kitchen":    {"kitchen", "kitchenette", "full kitchen"},
	"bbq":        {"bbq", "barbecue", "grill"},
	"balcony":    {"balcony", "terrace", "patio"},
	"tv":         {"tv", "television", "smart tv", "cable tv"},
	"workspace":  {"workspace", "desk", "dedicated workspace"},
	"beach":      {"beach access", "beachfront", "beach"},
	"ocean view": {"ocean view", "sea view"},
	"elevator":   {"elevator", "lift"},
}

// FuzzyMatchAmenity performs fuzzy matching for amenity names
// Returns true if the search term fuzzy matches the amenity
func FuzzyMatchAmenity(searchTerm, amenity string) bool {
	searchLower := strings.ToLower(strings.TrimSpace(searchTerm))
	amenityLower := strings.ToLower(strings.TrimSpace(amenity))

	if searchLower == "" || amenityLower == "" {
		return false
	}
	if searchLower == amenityLower {
		return true
	}
	if containsWord(amenityLower, searchLower) {
		return true
	}

	// Either side may use any spelling of the same keyword
	for key, values := range amenityAliases {
		if !mentions(searchLower, key, values) {
			continue
		}
		for _, alias := range values {
			if containsWord(amenityLower, alias) {
				return true
			}
		}
	}

	return false
}

func mentions(s, key string, aliases []string) bool {
	if containsWord(s, key) {
		return true
	}
	for _, alias := range aliases {
		if containsWord(s, alias) {
			return true
		}
	}
	return false
}

// containsWord reports whether needle appears in s on word boundaries
func containsWord(s, needle string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(needle)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		from = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// NormalizeAmenity normalizes amenity names to standard form
func NormalizeAmenity(amenity string) string {
	amenityLower := strings.ToLower(strings.TrimSpace(amenity))

	normalizations := map[string]string{
		"wifi":             "WiFi",
		"wi-fi":            "WiFi",
		"internet":         "WiFi",
		"pool":             "Pool",
		"swimming pool":    "Pool",
		"hot tub":          "Hot Tub",
		"jacuzzi":          "Hot Tub",
		"gym":              "Gym",
		"fitness":          "Gym",
		"aircon":           "Air Conditioning",
		"air conditioning": "Air Conditioning",
		"a/c":              "Air Conditioning",
		"ac":               "Air Conditioning",
		"washer":           "Washer",
		"washing machine":  "Washer",
		"laundry":          "Washer",
		"parking":          "Parking",
		"garage":           "Parking",
		"bbq":              "BBQ",
		"barbecue":         "BBQ",
		"grill":            "BBQ",
		"tv":               "TV",
		"television":       "TV",
	}

	if normalized, ok := normalizations[amenityLower]; ok {
		return normalized
	}

	// Otherwise capitalize each word
	words := strings.Fields(amenityLower)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
