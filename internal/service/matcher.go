package service

import (
	"fmt"
	"math"
	"strings"

	"rentalbot/internal/model"
	"rentalbot/internal/utils"
)

// Match reason constants
const (
	ReasonGuestsFit      = "Fits the group size"
	ReasonBedroomsMatch  = "Bedrooms match"
	ReasonBathroomsMatch = "Bathrooms match"
	ReasonLocationMatch  = "Location match"
	ReasonPriceMatch     = "Price within budget"
	ReasonMonthAvailable = "Available in requested month"
	ReasonPetFriendly    = "Pet friendly"
	ReasonAvailableNow   = "Currently available"
)

// Matcher compares retrieved properties against guest constraints
type Matcher struct{}

// NewMatcher creates a new matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Annotate fills MatchedReasons and UnmetConstraints on each result in place
func (m *Matcher) Annotate(results []model.SearchResult, c *model.Constraints) {
	for i := range results {
		results[i].MatchedReasons, results[i].UnmetConstraints = m.Evaluate(results[i].Property, c)
	}
}

// Evaluate returns what the property satisfies and what it does not
func (m *Matcher) Evaluate(p model.Property, c *model.Constraints) (matched, unmet []string) {
	matched = []string{}
	unmet = []string{}

	if p.IsAvailable() {
		matched = append(matched, ReasonAvailableNow)
	} else {
		unmet = append(unmet, "currently unavailable")
	}

	if c.IsEmpty() {
		return matched, unmet
	}

	if c.Guests != nil {
		switch {
		case p.MaxGuests == nil:
			unmet = append(unmet, fmt.Sprintf("guest capacity unknown (need %d)", *c.Guests))
		case *p.MaxGuests >= *c.Guests:
			matched = append(matched, ReasonGuestsFit)
		default:
			unmet = append(unmet, fmt.Sprintf("sleeps %d, need %d guests", *p.MaxGuests, *c.Guests))
		}
	}

	if c.Bedrooms != nil {
		switch {
		case p.Bedrooms == nil:
			unmet = append(unmet, fmt.Sprintf("bedroom count unknown (need %d)", *c.Bedrooms))
		case *p.Bedrooms >= *c.Bedrooms:
			matched = append(matched, ReasonBedroomsMatch)
		default:
			unmet = append(unmet, fmt.Sprintf("%d bedrooms, need %d", *p.Bedrooms, *c.Bedrooms))
		}
	}

	if c.Bathrooms != nil {
		switch {
		case p.Bathrooms == nil:
			unmet = append(unmet, fmt.Sprintf("bathroom count unknown (need %d)", *c.Bathrooms))
		case *p.Bathrooms >= *c.Bathrooms:
			matched = append(matched, ReasonBathroomsMatch)
		default:
			unmet = append(unmet, fmt.Sprintf("%d bathrooms, need %d", *p.Bathrooms, *c.Bathrooms))
		}
	}

	if c.Location != nil {
		if strings.EqualFold(strings.TrimSpace(p.Location), strings.TrimSpace(*c.Location)) {
			matched = append(matched, ReasonLocationMatch)
		} else {
			unmet = append(unmet, fmt.Sprintf("located in %s, not %s", p.Location, *c.Location))
		}
	}

	if c.PriceMin != nil || c.PriceMax != nil {
		if m.priceScore(p.Price, c) > 0 {
			matched = append(matched, ReasonPriceMatch)
		} else {
			unmet = append(unmet, fmt.Sprintf("$%.0f per night is outside the budget", p.Price))
		}
	}

	if c.Month != nil {
		if p.AvailableIn(*c.Month) {
			matched = append(matched, ReasonMonthAvailable)
		} else {
			unmet = append(unmet, fmt.Sprintf("not available in %s", *c.Month))
		}
	}

	if c.PetFriendly != nil && *c.PetFriendly {
		switch {
		case p.PetFriendly == nil:
			unmet = append(unmet, "pet policy unknown")
		case *p.PetFriendly:
			matched = append(matched, ReasonPetFriendly)
		default:
			unmet = append(unmet, "pets not allowed")
		}
	}

	for _, want := range c.Amenities {
		if m.hasAmenity(p, want) {
			matched = append(matched, "Has "+want)
		} else {
			unmet = append(unmet, "no "+strings.ToLower(want))
		}
	}

	return matched, unmet
}

func (m *Matcher) hasAmenity(p model.Property, want string) bool {
	for _, a := range p.Amenities {
		if utils.FuzzyMatchAmenity(want, a) {
			return true
		}
	}
	return false
}

// priceScore is 0 outside the budget and in (0,1] inside it, higher near the middle of a range
func (m *Matcher) priceScore(price float64, c *model.Constraints) float64 {
	if c.PriceMin != nil && price < *c.PriceMin {
		return 0
	}
	if c.PriceMax != nil && price > *c.PriceMax {
		return 0
	}
	if c.PriceMin == nil || c.PriceMax == nil {
		return 1
	}

	priceRange := *c.PriceMax - *c.PriceMin
	if priceRange == 0 {
		return 1
	}
	midpoint := (*c.PriceMin + *c.PriceMax) / 2
	score := 1 - math.Abs(price-midpoint)/(priceRange/2)
	return math.Max(score, 0.01)
}
