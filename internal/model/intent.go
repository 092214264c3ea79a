package model

// Constraints represents structured requirements extracted from a question
type Constraints struct {
	Guests      *int     `json:"guests,omitempty"`
	Bedrooms    *int     `json:"bedrooms,omitempty"`
	Bathrooms   *int     `json:"bathrooms,omitempty"`
	PriceMin    *float64 `json:"price_min,omitempty"`
	PriceMax    *float64 `json:"price_max,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Month       *string  `json:"month,omitempty"`
	PetFriendly *bool    `json:"pet_friendly,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
}

// IsEmpty reports whether no constraint was extracted
func (c *Constraints) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.Guests == nil && c.Bedrooms == nil && c.Bathrooms == nil &&
		c.PriceMin == nil && c.PriceMax == nil && c.Location == nil &&
		c.Month == nil && c.PetFriendly == nil && len(c.Amenities) == 0
}
