package utils

import "testing"

func TestFuzzyMatchAmenity(t *testing.T) {
	tests := []struct {
		search  string
		amenity string
		want    bool
	}{
		{"wifi", "WiFi", true},
		{"wifi", "Wireless Internet", true},
		{"pool", "Swimming Pool", true},
		{"hot tub", "Jacuzzi", true},
		{"parking", "Free parking", true},
		{"air conditioning", "A/C", true},
		{"ac", "Fireplace", false},
		{"spa", "Workspace", false},
		{"spa", "Hot Tub", true},
		{"desk", "Dedicated workspace", true},
		{"pool", "Gym", false},
		{"", "WiFi", false},
	}

	for _, tt := range tests {
		t.Run(tt.search+"/"+tt.amenity, func(t *testing.T) {
			if got := FuzzyMatchAmenity(tt.search, tt.amenity); got != tt.want {
				t.Errorf("FuzzyMatchAmenity(%q, %q) = %v, want %v", tt.search, tt.amenity, got, tt.want)
			}
		})
	}
}

func TestNormalizeAmenity(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"wi-fi", "WiFi"},
		{" Jacuzzi ", "Hot Tub"},
		{"rooftop deck", "Rooftop Deck"},
		{"été terrace", "Été Terrace"},
	}

	for _, tt := range tests {
		if got := NormalizeAmenity(tt.input); got != tt.want {
			t.Errorf("NormalizeAmenity(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
