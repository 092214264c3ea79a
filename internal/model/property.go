package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PropertyStatus is the availability state of a listing
type PropertyStatus string

const (
	StatusAvailable   PropertyStatus = "available"
	StatusUnavailable PropertyStatus = "unavailable"
)

// ParsePropertyStatus normalizes a raw status value
func ParsePropertyStatus(raw string) (PropertyStatus, error) {
	switch PropertyStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusAvailable:
		return StatusAvailable, nil
	case StatusUnavailable:
		return StatusUnavailable, nil
	}
	return "", fmt.Errorf("unknown property status %q", raw)
}

// Property represents a rental property from the catalog
type Property struct {
	ID              int64          `json:"property_id"`
	Name            string         `json:"name"`
	Location        string         `json:"location"`
	Price           float64        `json:"price"` // per night
	Status          PropertyStatus `json:"status"`
	Amenities       []string       `json:"amenities"`
	AvailableMonths []string       `json:"available_months"`

	PropertyType    *string  `json:"property_type,omitempty"`
	MaxGuests       *int     `json:"max_guests,omitempty"`
	Bedrooms        *int     `json:"number_of_bedrooms,omitempty"`
	Bathrooms       *int     `json:"number_of_bathrooms,omitempty"`
	SquareMeters    *float64 `json:"square_meters,omitempty"`
	PetFriendly     *bool    `json:"pet_friendly,omitempty"`
	CheckInTime     *string  `json:"check_in_time,omitempty"`
	CheckOutTime    *string  `json:"check_out_time,omitempty"`
	MinimumStay     *int     `json:"minimum_stay,omitempty"` // nights
	CleaningFee     *float64 `json:"cleaning_fee,omitempty"`
	SecurityDeposit *float64 `json:"security_deposit,omitempty"`
}

// IsAvailable reports whether the property can currently be booked
func (p Property) IsAvailable() bool {
	return p.Status == StatusAvailable
}

// HasAmenity reports case-insensitive membership of an amenity
func (p Property) HasAmenity(amenity string) bool {
	want := strings.ToLower(strings.TrimSpace(amenity))
	for _, a := range p.Amenities {
		if strings.ToLower(a) == want {
			return true
		}
	}
	return false
}

// AvailableIn reports whether the property lists the given month
func (p Property) AvailableIn(month string) bool {
	want := strings.ToLower(strings.TrimSpace(month))
	for _, m := range p.AvailableMonths {
		if strings.ToLower(m) == want {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer interface
func (p Property) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface
func (p *Property) Scan(value interface{}) error {
	if value == nil {
		*p = Property{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), p)
	}
	return json.Unmarshal(bytes, p)
}

// RetrievalEntry is a property rendered for embedding
type RetrievalEntry struct {
	Property  Property  `json:"metadata"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// SearchResult represents a retrieved property with relevance metadata
type SearchResult struct {
	Property         Property `json:"property"`
	Score            float64  `json:"score"`
	MatchedReasons   []string `json:"matched_reasons,omitempty"`
	UnmetConstraints []string `json:"unmet_constraints,omitempty"`
}
