package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"rentalbot/internal/model"
	"rentalbot/internal/utils"
)

const constraintsPrompt = `You are a vacation rental search assistant. Parse the guest's message into structured requirements.

Extract the following information if present:
- guests: number of guests (integer)
- bedrooms: number of bedrooms (integer)
- bathrooms: number of bathrooms (integer)
- price_min: minimum nightly price in USD (number)
- price_max: maximum nightly price in USD (number)
- location: city or area name (string)
- month: month of the stay, full English name (string)
- pet_friendly: true if the guest travels with pets (boolean)
- amenities: array of required amenities (e.g., ["Pool", "WiFi", "Parking"])

Important rules:
- Respond ONLY with valid JSON
- If a field is not mentioned, omit it
- "under $150" means price_max 150; "at least 3 bedrooms" means bedrooms 3

Examples:
Message: "Villa for 6 people with a pool in Malibu this July"
Response: {"guests": 6, "location": "Malibu", "month": "July", "amenities": ["Pool"]}

Message: "Something under 150 a night where I can bring my dog"
Response: {"price_max": 150, "pet_friendly": true}`

// ConstraintExtractor parses guest messages into structured constraints using the model
type ConstraintExtractor struct {
	generator Generator
}

// NewConstraintExtractor creates a new extractor; a nil generator disables extraction
func NewConstraintExtractor(generator Generator) *ConstraintExtractor {
	return &ConstraintExtractor{generator: generator}
}

// Extract returns the constraints found in message. Failures yield empty constraints.
func (e *ConstraintExtractor) Extract(ctx context.Context, message string) *model.Constraints {
	message = strings.TrimSpace(message)
	if message == "" || e == nil || e.generator == nil {
		return &model.Constraints{}
	}

	c, err := e.extract(ctx, message)
	if err != nil {
		log.Printf("Warning: constraint extraction failed: %v", err)
		return &model.Constraints{}
	}

	utils.Debugf("[DEBUG] 🎯 Extracted constraints: %+v", *c)
	return c
}

func (e *ConstraintExtractor) extract(ctx context.Context, message string) (*model.Constraints, error) {
	content, err := e.generator.Generate(ctx, GenerateRequest{
		System:      constraintsPrompt,
		Prompt:      message,
		Temperature: temperature(0.1),
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	var c model.Constraints
	if err := utils.ParseAIJSON(content, &c); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	if err := validateConstraints(&c); err != nil {
		return nil, fmt.Errorf("model response validation failed: %w", err)
	}

	for i, a := range c.Amenities {
		c.Amenities[i] = utils.NormalizeAmenity(a)
	}
	return &c, nil
}

// validateConstraints applies sanity bounds to model output
func validateConstraints(c *model.Constraints) error {
	if c.PriceMin != nil && c.PriceMax != nil && *c.PriceMin > *c.PriceMax {
		return fmt.Errorf("price_min (%.2f) cannot be greater than price_max (%.2f)", *c.PriceMin, *c.PriceMax)
	}
	if c.PriceMin != nil && *c.PriceMin < 0 {
		return fmt.Errorf("price_min must not be negative")
	}
	if c.Guests != nil && (*c.Guests < 1 || *c.Guests > 50) {
		return fmt.Errorf("guests must be between 1 and 50")
	}
	if c.Bedrooms != nil && (*c.Bedrooms < 0 || *c.Bedrooms > 20) {
		return fmt.Errorf("bedrooms must be between 0 and 20")
	}
	if c.Bathrooms != nil && (*c.Bathrooms < 0 || *c.Bathrooms > 20) {
		return fmt.Errorf("bathrooms must be between 0 and 20")
	}
	return nil
}
