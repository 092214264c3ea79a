package handler

import (
	"errors"
	"net/http"
	"strconv"

	"rentalbot/internal/catalog"
	"rentalbot/internal/model"

	"github.com/gin-gonic/gin"
)

// PropertyHandler serves read-only catalog queries
type PropertyHandler struct {
	catalog *catalog.Catalog
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(cat *catalog.Catalog) *PropertyHandler {
	return &PropertyHandler{catalog: cat}
}

// List handles GET /api/v1/properties
func (h *PropertyHandler) List(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter: " + err.Error()})
		return
	}

	results := h.catalog.Filter(filters)
	c.JSON(http.StatusOK, model.PropertyListResponse{
		Results: results,
		Total:   len(results),
	})
}

// Get handles GET /api/v1/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	propertyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	property, err := h.catalog.ByID(propertyID)
	if err != nil {
		if errors.Is(err, catalog.ErrPropertyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, property)
}

func parseFilters(c *gin.Context) (model.PropertyFilters, error) {
	var f model.PropertyFilters

	if raw := c.Query("status"); raw != "" {
		status, err := model.ParsePropertyStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = &status
	}
	if raw := c.Query("location"); raw != "" {
		f.Location = &raw
	}
	if raw := c.Query("amenity"); raw != "" {
		f.Amenity = &raw
	}

	for name, dst := range map[string]**float64{"price_min": &f.PriceMin, "price_max": &f.PriceMax} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, errors.New(name + " must be a number")
		}
		*dst = &v
	}

	return f, nil
}
