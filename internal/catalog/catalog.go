// Package catalog loads the rental property dataset and serves read-only queries over it.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"rentalbot/internal/model"
)

var (
	// ErrDataSource matches every catalog load failure via errors.Is
	ErrDataSource = errors.New("property data source error")
	// ErrPropertyNotFound is returned by ByID for unknown identifiers
	ErrPropertyNotFound = errors.New("property not found")
)

// DataSourceError describes why the catalog source could not be loaded
type DataSourceError struct {
	Path string
	Line int // 0 when the failure is not tied to a row
	Err  error
}

func (e *DataSourceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error loading properties data from %s (line %d): %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("error loading properties data from %s: %v", e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDataSource) match any DataSourceError
func (e *DataSourceError) Is(target error) bool { return target == ErrDataSource }

var requiredColumns = []string{
	"property_id", "name", "location", "price", "status", "amenities", "available_months",
}

// Catalog is the fully materialized, immutable property set
type Catalog struct {
	properties []model.Property
	byID       map[int64]int
}

// Load reads the delimited property file at path
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &DataSourceError{Path: path, Err: fmt.Errorf("properties file not found at %s", path)}
		}
		return nil, &DataSourceError{Path: path, Err: err}
	}
	defer f.Close()

	properties, err := Parse(f)
	if err != nil {
		var dse *DataSourceError
		if errors.As(err, &dse) {
			dse.Path = path
			return nil, dse
		}
		return nil, &DataSourceError{Path: path, Err: err}
	}

	return New(properties), nil
}

// New builds a catalog from already parsed properties
func New(properties []model.Property) *Catalog {
	c := &Catalog{
		properties: make([]model.Property, len(properties)),
		byID:       make(map[int64]int, len(properties)),
	}
	copy(c.properties, properties)
	for i, p := range c.properties {
		c.byID[p.ID] = i
	}
	return c
}

// Parse decodes CSV content with a header row into properties
func Parse(r io.Reader) ([]model.Property, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &DataSourceError{Err: fmt.Errorf("empty file")}
		}
		return nil, &DataSourceError{Err: fmt.Errorf("read header: %w", err)}
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &DataSourceError{Err: fmt.Errorf("missing required column %q", name)}
		}
	}

	var properties []model.Property
	seen := make(map[int64]struct{})
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataSourceError{Line: line, Err: err}
		}

		p, err := parseRow(record, cols)
		if err != nil {
			return nil, &DataSourceError{Line: line, Err: err}
		}
		if _, dup := seen[p.ID]; dup {
			return nil, &DataSourceError{Line: line, Err: fmt.Errorf("duplicate property_id %d", p.ID)}
		}
		seen[p.ID] = struct{}{}
		properties = append(properties, p)
	}

	return properties, nil
}

// row gives typed access to the cells of one record
type row struct {
	record []string
	cols   map[string]int
}

func (r row) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func parseRow(record []string, cols map[string]int) (model.Property, error) {
	r := row{record: record, cols: cols}
	var p model.Property
	var err error

	if p.ID, err = strconv.ParseInt(r.get("property_id"), 10, 64); err != nil {
		return p, fmt.Errorf("invalid property_id %q", r.get("property_id"))
	}
	p.Name = r.get("name")
	p.Location = r.get("location")
	if p.Price, err = strconv.ParseFloat(r.get("price"), 64); err != nil {
		return p, fmt.Errorf("invalid price %q", r.get("price"))
	}
	if p.Status, err = model.ParsePropertyStatus(r.get("status")); err != nil {
		return p, err
	}
	p.Amenities = splitList(r.get("amenities"))
	p.AvailableMonths = splitList(r.get("available_months"))

	p.PropertyType = optString(r.get("property_type"))
	p.CheckInTime = optString(r.get("check_in_time"))
	p.CheckOutTime = optString(r.get("check_out_time"))

	ints := []struct {
		col string
		dst **int
	}{
		{"max_guests", &p.MaxGuests},
		{"number_of_bedrooms", &p.Bedrooms},
		{"number_of_bathrooms", &p.Bathrooms},
		{"minimum_stay", &p.MinimumStay},
	}
	for _, f := range ints {
		if *f.dst, err = optInt(r.get(f.col)); err != nil {
			return p, fmt.Errorf("invalid %s: %w", f.col, err)
		}
	}

	floats := []struct {
		col string
		dst **float64
	}{
		{"square_meters", &p.SquareMeters},
		{"cleaning_fee", &p.CleaningFee},
		{"security_deposit", &p.SecurityDeposit},
	}
	for _, f := range floats {
		if *f.dst, err = optFloat(r.get(f.col)); err != nil {
			return p, fmt.Errorf("invalid %s: %w", f.col, err)
		}
	}

	if p.PetFriendly, err = optBool(r.get("pet_friendly")); err != nil {
		return p, fmt.Errorf("invalid pet_friendly: %w", err)
	}

	return p, nil
}

// splitList turns a comma-joined cell into trimmed, non-empty items
func splitList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	// integer columns with gaps are often exported as floats ("4.0")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%q is not a whole number", s)
	}
	v := int(f)
	return &v, nil
}

func optFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	var v bool
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		v = true
	case "false", "no", "n", "0":
		v = false
	default:
		return nil, fmt.Errorf("not a boolean: %q", s)
	}
	return &v, nil
}
