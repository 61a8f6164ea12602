package exporter

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/dataprocessing"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/evaluation"
)

// Table is a rectangular report section shared by the CSV and workbook writers
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Records renders every row as strings
func (t Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = formatRow(row)
	}
	return out
}

// StageTable lists row counts per pipeline stage
func StageTable(stages []StageCount) Table {
	t := Table{Name: "stages", Headers: []string{"stage", "input", "output", "dropped", "imputed", "note"}}
	for _, s := range stages {
		t.Rows = append(t.Rows, []any{s.Stage, s.Input, s.Output, s.Dropped, s.Imputed, s.Note})
	}
	return t
}

// CoefficientTable lists the posterior summary of every model parameter
func CoefficientTable(fits ...*bayes.Fit) Table {
	t := Table{Name: "coefficients", Headers: []string{
		"model", "term", "mean", "se", "median", "mad_sd", "q2.5", "q97.5", "rhat", "ess",
	}}
	for _, f := range fits {
		for _, s := range f.Summary() {
			t.Rows = append(t.Rows, []any{f.Name, s.Name, s.Mean, s.SD, s.Median, s.MADSD, s.Q025, s.Q975, s.Rhat, s.ESS})
		}
	}
	return t
}

// ModelTable is the coefficient table of a single model without the model column
func ModelTable(f *bayes.Fit) Table {
	t := CoefficientTable(f)
	t.Name = f.Name
	t.Headers = t.Headers[1:]
	for i, row := range t.Rows {
		t.Rows[i] = row[1:]
	}
	return t
}

// EDATable lists the per-borough descriptive statistics followed by the total
func EDATable(r *dataprocessing.EDAReport) Table {
	t := Table{Name: "eda", Headers: []string{
		"borough", "count", "missing_price", "missing_share", "median_price", "mean_log_price",
		"sd_log_price", "mean_land_area", "mean_gross_area", "mean_units", "mean_age",
	}}
	for _, b := range append(append([]dataprocessing.BoroughSummary(nil), r.Boroughs...), r.Overall) {
		t.Rows = append(t.Rows, []any{
			b.Borough, b.Count, b.MissingPrice, b.MissingShare(), b.MedianPrice, b.MeanLogPrice,
			b.SDLogPrice, b.MeanLand, b.MeanGross, b.MeanUnits, b.MeanAge,
		})
	}
	return t
}

// CorrelationTable lists the correlation of log price with each feature
func CorrelationTable(r *dataprocessing.EDAReport) Table {
	t := Table{Name: "correlations", Headers: []string{"feature", "r", "n"}}
	for _, c := range r.Correlations {
		t.Rows = append(t.Rows, []any{c.Feature, c.R, c.N})
	}
	return t
}

// PPCDensityTable lists the observed density and the pointwise mean and 90%
// band of the replicated densities on the shared grid
func PPCDensityTable(p *evaluation.PPCResult) Table {
	t := Table{Name: "ppc_density", Headers: []string{
		"price_log", "observed", "replicate_mean", "replicate_q05", "replicate_q95",
	}}
	lower, upper := p.ReplicateBand()
	for g, x := range p.Grid {
		var mean float64
		for _, rep := range p.Replicates {
			mean += rep[g]
		}
		if len(p.Replicates) > 0 {
			mean /= float64(len(p.Replicates))
		}
		t.Rows = append(t.Rows, []any{x, p.Observed[g], mean, lower[g], upper[g]})
	}
	return t
}

// PPCStatsTable lists the test statistics of the predictive check
func PPCStatsTable(p *evaluation.PPCResult) Table {
	t := Table{Name: "ppc_stats", Headers: []string{"statistic", "observed", "replicated_mean", "replicated_sd", "p_value"}}
	for _, s := range p.Stats {
		t.Rows = append(t.Rows, []any{s.Name, s.Observed, s.ReplicatedMean, s.ReplicatedSD, s.PValue})
	}
	return t
}

// CounterfactualTable lists every moved record
func CounterfactualTable(c *evaluation.CounterfactualResult) Table {
	from, to := c.From.String(), c.To.String()
	t := Table{Name: "counterfactual", Headers: []string{
		"row", "price_log", "imputed", "land_std", "gross_std", "units_c", "age",
		"pred_" + from, "pred_" + to, "diff", "expected_diff",
	}}
	for _, r := range c.Records {
		t.Rows = append(t.Rows, []any{
			r.Row, r.PriceLog, r.Imputed, r.LandStd, r.GrossStd, r.UnitsC, r.Age,
			r.PredFrom, r.PredTo, r.Diff, r.MeanShift,
		})
	}
	return t
}

// Histogram bins values into equal-width bins; bins <= 0 picks Sturges' rule.
// The maximum falls in the last bin.
func Histogram(values []float64, bins int) (centers []float64, counts []int) {
	if len(values) == 0 {
		return nil, nil
	}
	if bins <= 0 {
		bins = int(math.Ceil(math.Log2(float64(len(values))))) + 1
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return []float64{lo}, []int{len(values)}
	}

	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	centers = make([]float64, bins)
	for i := range centers {
		centers[i] = (dividers[i] + dividers[i+1]) / 2
	}
	// stat.Histogram bins are half-open
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	weights := stat.Histogram(nil, dividers, sorted, nil)
	counts = make([]int, bins)
	for i, w := range weights {
		counts[i] = int(w)
	}
	return centers, counts
}

// HistogramTable bins the counterfactual differences
func HistogramTable(c *evaluation.CounterfactualResult) Table {
	t := Table{Name: "diff_histogram", Headers: []string{"diff", "count"}}
	centers, counts := Histogram(c.Diffs(), 0)
	for i := range centers {
		t.Rows = append(t.Rows, []any{centers[i], counts[i]})
	}
	return t
}
