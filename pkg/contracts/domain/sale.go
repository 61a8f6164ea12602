package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Borough is one of the five NYC boroughs, numbered by the Department of Finance borough code.
type Borough int

const (
	BoroughUnknown Borough = iota
	BoroughManhattan
	BoroughBronx
	BoroughBrooklyn
	BoroughQueens
	BoroughStatenIsland
)

// Boroughs lists the known boroughs in code order. The first entry is the
// reference level for one-hot encoding.
var Boroughs = []Borough{
	BoroughManhattan,
	BoroughBronx,
	BoroughBrooklyn,
	BoroughQueens,
	BoroughStatenIsland,
}

// String returns the lowercase borough name used throughout reports
func (b Borough) String() string {
	switch b {
	case BoroughManhattan:
		return "manhattan"
	case BoroughBronx:
		return "bronx"
	case BoroughBrooklyn:
		return "brooklyn"
	case BoroughQueens:
		return "queens"
	case BoroughStatenIsland:
		return "staten island"
	default:
		return "unknown"
	}
}

// Valid reports whether b is one of the five known boroughs
func (b Borough) Valid() bool {
	return b >= BoroughManhattan && b <= BoroughStatenIsland
}

// Code returns the numeric borough code (1-5), or 0 for unknown
func (b Borough) Code() int {
	if !b.Valid() {
		return 0
	}
	return int(b)
}

// ParseBoroughCode converts a BOROUGH cell ("1".."5", optionally "1.0") into a Borough.
func ParseBoroughCode(s string) (Borough, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BoroughUnknown, fmt.Errorf("empty borough code")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return BoroughUnknown, fmt.Errorf("invalid borough code %q", s)
	}
	b := Borough(int(f))
	if !b.Valid() {
		return BoroughUnknown, fmt.Errorf("borough code out of range: %q", s)
	}
	return b, nil
}

// ParseBoroughName accepts names like "Staten Island", "staten_island" or "statenisland".
func ParseBoroughName(s string) (Borough, error) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, b := range Boroughs {
		if strings.ReplaceAll(b.String(), " ", "") == key {
			return b, nil
		}
	}
	return BoroughUnknown, fmt.Errorf("unknown borough %q", s)
}

// Source column names of the Department of Finance rolling sales extracts.
const (
	ColBorough          = "BOROUGH"
	ColNeighborhood     = "NEIGHBORHOOD"
	ColResidentialUnits = "RESIDENTIAL.UNITS"
	ColCommercialUnits  = "COMMERCIAL.UNITS"
	ColTotalUnits       = "TOTAL.UNITS"
	ColLandSquareFeet   = "LAND.SQUARE.FEET"
	ColGrossSquareFeet  = "GROSS.SQUARE.FEET"
	ColYearBuilt        = "YEAR.BUILT"
	ColZipCode          = "ZIP.CODE"
	ColAddress          = "ADDRESS"
	ColApartmentNumber  = "APARTMENT.NUMBER"
	ColBuildingClass    = "BUILDING.CLASS.AT.TIME.OF.SALE"
	ColSalePrice        = "SALE.PRICE"
	ColSaleDate         = "SALE.DATE"
)

// SaleRecord is one property transaction after normalization.
// Numeric fields hold NaN when the source cell was missing or malformed.
type SaleRecord struct {
	Borough          Borough   `json:"borough"`
	Neighborhood     string    `json:"neighborhood"`
	ResidentialUnits float64   `json:"residential_units"`
	CommercialUnits  float64   `json:"commercial_units"`
	TotalUnits       float64   `json:"total_units"`
	LandSquareFeet   float64   `json:"land_square_feet"`
	GrossSquareFeet  float64   `json:"gross_square_feet"`
	YearBuilt        float64   `json:"year_built"`
	ZipCode          float64   `json:"zip_code"`
	Address          string    `json:"address"`
	ApartmentNumber  string    `json:"apartment_number"`
	BuildingClass    string    `json:"building_class"`
	SalePrice        float64   `json:"sale_price"`
	SaleDate         time.Time `json:"sale_date"`
}

// HasPrice reports whether the sale price is usable on a log scale
func (r SaleRecord) HasPrice() bool {
	return !math.IsNaN(r.SalePrice) && r.SalePrice > 0
}

// FeatureRow is a sale after feature building, ready for modeling.
type FeatureRow struct {
	Borough    Borough `json:"borough"`
	TotalUnits float64 `json:"total_units"`
	LandArea   float64 `json:"land_area"`
	GrossArea  float64 `json:"gross_area"`
	YearBuilt  float64 `json:"year_built"`
	Price      float64 `json:"price"` // NaN when missing

	LandStd  float64 `json:"land_std"`
	GrossStd float64 `json:"gross_std"`
	UnitsC   float64 `json:"units_c"`
	Age      float64 `json:"age"`
}

// HasPrice reports whether the row carries an observed, positive sale price
func (f FeatureRow) HasPrice() bool {
	return !math.IsNaN(f.Price) && f.Price > 0
}

// ModelRow is a FeatureRow with the log-price outcome filled in.
type ModelRow struct {
	FeatureRow
	PriceLog float64 `json:"price_log"`
	Imputed  bool    `json:"imputed"`
}
