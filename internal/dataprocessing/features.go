package dataprocessing

import (
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// FeatureConfig holds the feature building constants
type FeatureConfig struct {
	ReferenceYear int
	MinArea       float64
}

// Scaling records the parameters used to standardize and center features
type Scaling struct {
	LandMean  float64 `json:"land_mean"`
	LandSD    float64 `json:"land_sd"`
	GrossMean float64 `json:"gross_mean"`
	GrossSD   float64 `json:"gross_sd"`
	UnitsMean float64 `json:"units_mean"`
	N         int     `json:"n"`
}

// FeatureTable is the modeling population with derived features
type FeatureTable struct {
	Rows          []domain.FeatureRow
	Scaling       Scaling
	ReferenceYear int
}

// Len returns the number of rows
func (ft *FeatureTable) Len() int { return len(ft.Rows) }

// MissingPrice counts rows without a usable price
func (ft *FeatureTable) MissingPrice() int {
	n := 0
	for _, r := range ft.Rows {
		if !r.HasPrice() {
			n++
		}
	}
	return n
}

// FeatureStats counts rows removed by each data-quality rule
type FeatureStats struct {
	Input          int
	UnknownBorough int
	BelowAreaFloor int
	BadYearBuilt   int
	Kept           int
}

// Dropped returns the number of rows removed
func (s FeatureStats) Dropped() int {
	return s.Input - s.Kept
}

// BuildFeatures selects the modeling columns and derives the features.
// Rows with land or gross area below the floor are dropped first, then land
// and gross area are standardized with the statistics of the remaining rows.
// Rows with a year built that is missing or not positive are dropped
// afterwards, age is the reference year minus year built, and units are
// centered by the mean of the rows that are kept.
func BuildFeatures(t *Table, cfg FeatureConfig) (*FeatureTable, FeatureStats, error) {
	stats := FeatureStats{Input: t.Len()}

	rows := make([]domain.FeatureRow, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		b := t.Label(i)
		if !b.Valid() {
			stats.UnknownBorough++
			continue
		}
		row := domain.FeatureRow{
			Borough:    b,
			TotalUnits: t.Float(domain.ColTotalUnits, i),
			LandArea:   t.Float(domain.ColLandSquareFeet, i),
			GrossArea:  t.Float(domain.ColGrossSquareFeet, i),
			YearBuilt:  t.Float(domain.ColYearBuilt, i),
			Price:      t.Float(domain.ColSalePrice, i),
		}
		// NaN compares false, so missing areas fail the floor too
		if !(row.LandArea >= cfg.MinArea && row.GrossArea >= cfg.MinArea) || math.IsNaN(row.TotalUnits) {
			stats.BelowAreaFloor++
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) < 2 {
		return nil, stats, apperrors.NewAppError(apperrors.ErrTypeValidation, "too few rows to standardize features", apperrors.ErrNoRows).
			WithContext("rows", len(rows))
	}

	land := make([]float64, len(rows))
	gross := make([]float64, len(rows))
	for i, r := range rows {
		land[i], gross[i] = r.LandArea, r.GrossArea
	}

	var sc Scaling
	sc.N = len(rows)
	sc.LandMean, sc.LandSD = stat.MeanStdDev(land, nil)
	sc.GrossMean, sc.GrossSD = stat.MeanStdDev(gross, nil)
	if sc.LandSD == 0 || sc.GrossSD == 0 {
		return nil, stats, apperrors.NewAppValidationError("area has zero variance").
			WithContext("land_sd", sc.LandSD).
			WithContext("gross_sd", sc.GrossSD)
	}

	out := rows[:0]
	for _, r := range rows {
		if !(r.YearBuilt > 0) {
			stats.BadYearBuilt++
			continue
		}
		r.LandStd = (r.LandArea - sc.LandMean) / sc.LandSD
		r.GrossStd = (r.GrossArea - sc.GrossMean) / sc.GrossSD
		r.Age = float64(cfg.ReferenceYear) - r.YearBuilt
		if r.Price <= 0 {
			r.Price = math.NaN()
		}
		out = append(out, r)
	}

	stats.Kept = len(out)
	if stats.Kept == 0 {
		return nil, stats, apperrors.NewAppError(apperrors.ErrTypeValidation, "no rows left after feature building", apperrors.ErrNoRows)
	}

	units := make([]float64, len(out))
	for i, r := range out {
		units[i] = r.TotalUnits
	}
	sc.UnitsMean = stat.Mean(units, nil)
	for i := range out {
		out[i].UnitsC = out[i].TotalUnits - sc.UnitsMean
	}

	return &FeatureTable{Rows: out, Scaling: sc, ReferenceYear: cfg.ReferenceYear}, stats, nil
}
