package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rentalbot/internal/catalog"
	"rentalbot/internal/model"
	"rentalbot/internal/utils"
)

var (
	propertiesFile string
	filterStatus   string
	filterLocation string
	filterAmenity  string
	filterPriceMin float64
	filterPriceMax float64
)

func init() {
	cmd := &cobra.Command{
		Use:   "properties",
		Short: "List catalog properties as JSON",
		Run:   runProperties,
	}

	defaultFile := os.Getenv("PROPERTIES_FILE")
	if defaultFile == "" {
		defaultFile = filepath.Join("data", "properties.csv")
	}
	cmd.Flags().StringVar(&propertiesFile, "file", defaultFile, "Properties CSV file")
	cmd.Flags().StringVar(&filterStatus, "status", "", "Filter by status: available or unavailable")
	cmd.Flags().StringVar(&filterLocation, "location", "", "Filter by location")
	cmd.Flags().StringVar(&filterAmenity, "amenity", "", "Filter by amenity")
	cmd.Flags().Float64Var(&filterPriceMin, "price-min", 0, "Minimum nightly price")
	cmd.Flags().Float64Var(&filterPriceMax, "price-max", 0, "Maximum nightly price")

	RootCmd.AddCommand(cmd)
}

func runProperties(cmd *cobra.Command, args []string) {
	cat, err := catalog.Load(propertiesFile)
	if err != nil {
		exitErr("load catalog", err)
	}

	var f model.PropertyFilters
	if filterStatus != "" {
		status, err := model.ParsePropertyStatus(filterStatus)
		if err != nil {
			exitErr("status", err)
		}
		f.Status = &status
	}
	if filterLocation != "" {
		f.Location = &filterLocation
	}
	if filterAmenity != "" {
		f.Amenity = &filterAmenity
	}
	if cmd.Flags().Changed("price-min") {
		f.PriceMin = &filterPriceMin
	}
	if cmd.Flags().Changed("price-max") {
		f.PriceMax = &filterPriceMax
	}

	results := cat.Filter(f)
	out, err := utils.PrettyPrintJSON(model.PropertyListResponse{Results: results, Total: len(results)})
	if err != nil {
		exitErr("encode", err)
	}
	fmt.Println(out)
}
