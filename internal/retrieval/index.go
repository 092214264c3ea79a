// Package retrieval embeds property descriptions and answers nearest-neighbour queries.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rentalbot/internal/model"
)

// ErrIndexNotBuilt is returned when querying an index that has no entries yet
var ErrIndexNotBuilt = errors.New("retrieval index not built")

// Embedder turns texts into vectors, one per input, in input order
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is a k-nearest-neighbour store over property descriptions
type Index interface {
	// Build embeds every entry and replaces the previous contents
	Build(ctx context.Context, entries []model.RetrievalEntry) error
	// Query returns at most k entries ordered by decreasing relevance
	Query(ctx context.Context, text string, k int) ([]model.SearchResult, error)
	Len() int
}

// DescribeProperty renders the descriptive text that gets embedded for a property
func DescribeProperty(p model.Property) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Property: %s\n", p.Name)
	fmt.Fprintf(&b, "Location: %s\n", p.Location)
	fmt.Fprintf(&b, "Price: $%s per night\n", formatPrice(p.Price))
	fmt.Fprintf(&b, "Status: %s\n", p.Status)
	fmt.Fprintf(&b, "Amenities: %s\n", strings.Join(p.Amenities, ", "))
	fmt.Fprintf(&b, "Available months: %s", strings.Join(p.AvailableMonths, ", "))

	if p.PropertyType != nil {
		fmt.Fprintf(&b, "\nType: %s", *p.PropertyType)
	}
	if p.MaxGuests != nil {
		fmt.Fprintf(&b, "\nMax guests: %d", *p.MaxGuests)
	}
	if p.Bedrooms != nil {
		fmt.Fprintf(&b, "\nBedrooms: %d", *p.Bedrooms)
	}
	if p.Bathrooms != nil {
		fmt.Fprintf(&b, "\nBathrooms: %d", *p.Bathrooms)
	}
	if p.SquareMeters != nil {
		fmt.Fprintf(&b, "\nSize: %s m²", formatPrice(*p.SquareMeters))
	}
	if p.PetFriendly != nil {
		if *p.PetFriendly {
			b.WriteString("\nPets: allowed")
		} else {
			b.WriteString("\nPets: not allowed")
		}
	}
	if p.CheckInTime != nil {
		fmt.Fprintf(&b, "\nCheck-in: %s", *p.CheckInTime)
	}
	if p.CheckOutTime != nil {
		fmt.Fprintf(&b, "\nCheck-out: %s", *p.CheckOutTime)
	}
	if p.MinimumStay != nil {
		fmt.Fprintf(&b, "\nMinimum stay: %d nights", *p.MinimumStay)
	}
	if p.CleaningFee != nil {
		fmt.Fprintf(&b, "\nCleaning fee: $%s", formatPrice(*p.CleaningFee))
	}
	if p.SecurityDeposit != nil {
		fmt.Fprintf(&b, "\nSecurity deposit: $%s", formatPrice(*p.SecurityDeposit))
	}

	return b.String()
}

// EntriesFromProperties builds one unembedded entry per property, in catalog order
func EntriesFromProperties(properties []model.Property) []model.RetrievalEntry {
	entries := make([]model.RetrievalEntry, len(properties))
	for i, p := range properties {
		entries[i] = model.RetrievalEntry{Property: p, Text: DescribeProperty(p)}
	}
	return entries
}

// formatPrice drops the fractional part for whole amounts
func formatPrice(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func embedAll(ctx context.Context, embedder Embedder, entries []model.RetrievalEntry) error {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}

	vectors, err := embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed properties: %w", err)
	}
	if len(vectors) != len(entries) {
		return fmt.Errorf("embed properties: got %d vectors for %d texts", len(vectors), len(entries))
	}
	for i := range entries {
		entries[i].Embedding = vectors[i]
	}
	return nil
}

func embedQuery(ctx context.Context, embedder Embedder, text string) ([]float32, error) {
	vectors, err := embedder.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}
	return vectors[0], nil
}
