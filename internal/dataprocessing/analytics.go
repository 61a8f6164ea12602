package dataprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// BoroughSummary holds descriptive statistics of one borough's sales.
// Price statistics only use rows with an observed price.
type BoroughSummary struct {
	Borough      string  `json:"borough"`
	Count        int     `json:"count"`
	MissingPrice int     `json:"missing_price"`
	MedianPrice  float64 `json:"median_price"`
	MeanLogPrice float64 `json:"mean_log_price"`
	SDLogPrice   float64 `json:"sd_log_price"`
	MeanLand     float64 `json:"mean_land_area"`
	MeanGross    float64 `json:"mean_gross_area"`
	MeanUnits    float64 `json:"mean_units"`
	MeanAge      float64 `json:"mean_age"`
}

// MissingShare returns the fraction of rows without a price
func (s BoroughSummary) MissingShare() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.MissingPrice) / float64(s.Count)
}

// Correlation is the Pearson correlation of log price with a feature
type Correlation struct {
	Feature string  `json:"feature"`
	R       float64 `json:"r"`
	N       int     `json:"n"`
}

// EDAReport is the exploratory summary of the feature table
type EDAReport struct {
	Boroughs     []BoroughSummary `json:"boroughs"`
	Overall      BoroughSummary   `json:"overall"`
	Correlations []Correlation    `json:"correlations"`
}

// Describe computes per-borough summaries and the correlation of log price
// with each continuous feature.
func Describe(ft *FeatureTable) *EDAReport {
	groups := make(map[domain.Borough][]domain.FeatureRow)
	for _, r := range ft.Rows {
		groups[r.Borough] = append(groups[r.Borough], r)
	}

	report := &EDAReport{}
	for _, b := range domain.Boroughs {
		if rows, ok := groups[b]; ok {
			report.Boroughs = append(report.Boroughs, summarize(b.String(), rows))
		}
	}
	report.Overall = summarize("all", ft.Rows)

	var logPrice []float64
	features := map[string][]float64{}
	for _, r := range ft.Rows {
		if !r.HasPrice() {
			continue
		}
		logPrice = append(logPrice, math.Log(r.Price))
		features["land_std"] = append(features["land_std"], r.LandStd)
		features["gross_std"] = append(features["gross_std"], r.GrossStd)
		features["units_c"] = append(features["units_c"], r.UnitsC)
		features["age"] = append(features["age"], r.Age)
	}
	for _, name := range []string{"land_std", "gross_std", "units_c", "age"} {
		c := Correlation{Feature: name, N: len(logPrice), R: math.NaN()}
		if len(logPrice) > 2 {
			c.R = stat.Correlation(logPrice, features[name], nil)
		}
		report.Correlations = append(report.Correlations, c)
	}

	return report
}

func summarize(label string, rows []domain.FeatureRow) BoroughSummary {
	s := BoroughSummary{Borough: label, Count: len(rows)}

	var prices, logPrices, land, gross, units, age []float64
	for _, r := range rows {
		land = append(land, r.LandArea)
		gross = append(gross, r.GrossArea)
		units = append(units, r.TotalUnits)
		age = append(age, r.Age)
		if !r.HasPrice() {
			s.MissingPrice++
			continue
		}
		prices = append(prices, r.Price)
		logPrices = append(logPrices, math.Log(r.Price))
	}

	s.MeanLand = stat.Mean(land, nil)
	s.MeanGross = stat.Mean(gross, nil)
	s.MeanUnits = stat.Mean(units, nil)
	s.MeanAge = stat.Mean(age, nil)

	s.MedianPrice, s.MeanLogPrice, s.SDLogPrice = math.NaN(), math.NaN(), math.NaN()
	if len(prices) > 0 {
		s.MedianPrice = Median(prices)
		s.MeanLogPrice = stat.Mean(logPrices, nil)
	}
	if len(logPrices) > 1 {
		s.SDLogPrice = stat.StdDev(logPrices, nil)
	}
	return s
}

// Median returns the median of vals, averaging the middle pair for even lengths
func Median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return bayes.Quantile(sorted, 0.5)
}
