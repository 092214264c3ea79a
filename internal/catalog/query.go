package catalog

import (
	"strings"

	"rentalbot/internal/model"
)

// Len returns the number of properties in the catalog
func (c *Catalog) Len() int {
	return len(c.properties)
}

// All returns every property in catalog order
func (c *Catalog) All() []model.Property {
	return c.where(func(model.Property) bool { return true })
}

// Available returns only properties with status available
func (c *Catalog) Available() []model.Property {
	return c.ByStatus(model.StatusAvailable)
}

// ByStatus returns properties with the given status
func (c *Catalog) ByStatus(status model.PropertyStatus) []model.Property {
	return c.where(func(p model.Property) bool { return p.Status == status })
}

// ByID returns a specific property
func (c *Catalog) ByID(id int64) (model.Property, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Property{}, ErrPropertyNotFound
	}
	return c.properties[i], nil
}

// ByLocation returns properties whose location equals loc, ignoring case
func (c *Catalog) ByLocation(loc string) []model.Property {
	loc = strings.TrimSpace(loc)
	return c.where(func(p model.Property) bool { return strings.EqualFold(p.Location, loc) })
}

// ByPriceRange returns properties priced within [min, max]
func (c *Catalog) ByPriceRange(min, max float64) []model.Property {
	return c.where(func(p model.Property) bool { return p.Price >= min && p.Price <= max })
}

// ByAmenity returns properties that list the amenity, ignoring case
func (c *Catalog) ByAmenity(amenity string) []model.Property {
	return c.where(func(p model.Property) bool { return p.HasAmenity(amenity) })
}

// Filter applies every set filter as a conjunction
func (c *Catalog) Filter(f model.PropertyFilters) []model.Property {
	return c.where(func(p model.Property) bool {
		if f.Status != nil && p.Status != *f.Status {
			return false
		}
		if f.Location != nil && !strings.EqualFold(p.Location, strings.TrimSpace(*f.Location)) {
			return false
		}
		if f.PriceMin != nil && p.Price < *f.PriceMin {
			return false
		}
		if f.PriceMax != nil && p.Price > *f.PriceMax {
			return false
		}
		if f.Amenity != nil && !p.HasAmenity(*f.Amenity) {
			return false
		}
		return true
	})
}

func (c *Catalog) where(keep func(model.Property) bool) []model.Property {
	out := []model.Property{}
	for _, p := range c.properties {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
