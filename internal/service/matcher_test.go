package service

import (
	"reflect"
	"testing"

	"rentalbot/internal/model"
	"rentalbot/internal/utils"
)

func withAmenities(p model.Property, amenities ...string) model.Property {
	p.Amenities = amenities
	return p
}

func TestMatcher_Evaluate(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name        string
		property    model.Property
		constraints *model.Constraints
		wantMatched []string
		wantUnmet   []string
	}{
		{
			name:        "no constraints",
			property:    villa(),
			constraints: nil,
			wantMatched: []string{ReasonAvailableNow},
			wantUnmet:   []string{},
		},
		{
			name:     "everything fits",
			property: villa(),
			constraints: &model.Constraints{
				Guests:      intPtr(4),
				Bedrooms:    intPtr(2),
				Location:    strPtr("malibu"),
				PriceMax:    floatPtr(250),
				Month:       strPtr("July"),
				PetFriendly: boolPtr(true),
				Amenities:   []string{"Swimming Pool"},
			},
			wantMatched: []string{
				ReasonAvailableNow, ReasonGuestsFit, ReasonBedroomsMatch, ReasonLocationMatch,
				ReasonPriceMatch, ReasonMonthAvailable, ReasonPetFriendly, "Has Swimming Pool",
			},
			wantUnmet: []string{},
		},
		{
			name:        "amenity inside another word does not count",
			property:    withAmenities(villa(), "Workspace", "Fireplace"),
			constraints: &model.Constraints{Amenities: []string{utils.NormalizeAmenity("spa")}},
			wantMatched: []string{ReasonAvailableNow},
			wantUnmet:   []string{"no spa"},
		},
		{
			name:     "mismatches are explained",
			property: cabin(),
			constraints: &model.Constraints{
				Guests:      intPtr(6),
				Bathrooms:   intPtr(1),
				Location:    strPtr("Malibu"),
				PriceMin:    floatPtr(150),
				PriceMax:    floatPtr(300),
				Month:       strPtr("July"),
				PetFriendly: boolPtr(true),
				Amenities:   []string{"WiFi"},
			},
			wantMatched: []string{},
			wantUnmet: []string{
				"currently unavailable",
				"sleeps 4, need 6 guests",
				"bathroom count unknown (need 1)",
				"located in Aspen, not Malibu",
				"$120 per night is outside the budget",
				"not available in July",
				"pets not allowed",
				"no wifi",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, unmet := m.Evaluate(tt.property, tt.constraints)
			if !reflect.DeepEqual(matched, tt.wantMatched) {
				t.Errorf("matched = %q, want %q", matched, tt.wantMatched)
			}
			if !reflect.DeepEqual(unmet, tt.wantUnmet) {
				t.Errorf("unmet = %q, want %q", unmet, tt.wantUnmet)
			}
		})
	}
}

func TestMatcher_AnnotateKeepsOrder(t *testing.T) {
	results := []model.SearchResult{
		{Property: cabin(), Score: 0.9},
		{Property: villa(), Score: 0.5},
	}

	NewMatcher().Annotate(results, &model.Constraints{Guests: intPtr(5)})

	if results[0].Property.ID != 2 || results[1].Property.ID != 1 {
		t.Error("Annotate must not reorder results")
	}
	if len(results[0].UnmetConstraints) != 2 {
		t.Errorf("cabin unmet = %q", results[0].UnmetConstraints)
	}
	if len(results[1].UnmetConstraints) != 0 {
		t.Errorf("villa unmet = %q", results[1].UnmetConstraints)
	}
}

func TestPriceScore(t *testing.T) {
	m := NewMatcher()
	budget := &model.Constraints{PriceMin: floatPtr(100), PriceMax: floatPtr(200)}

	tests := []struct {
		price float64
		want  float64
	}{
		{150, 1},
		{100, 0.01},
		{125, 0.5},
		{99, 0},
		{201, 0},
	}

	for _, tt := range tests {
		if got := m.priceScore(tt.price, budget); got != tt.want {
			t.Errorf("priceScore(%v) = %v, want %v", tt.price, got, tt.want)
		}
	}
}
