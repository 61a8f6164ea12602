package evaluation

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
)

// ppcStream is the random stream of the predictive check
const ppcStream = 2 << 20

// PPCConfig controls the posterior predictive check
type PPCConfig struct {
	Draws      int
	GridPoints int
	Seed       uint64
}

// TestStatistic compares a statistic of the observed outcome with its
// distribution over replicated outcomes. PValue is the share of replicates
// whose statistic is at least the observed one.
type TestStatistic struct {
	Name           string  `json:"name"`
	Observed       float64 `json:"observed"`
	ReplicatedMean float64 `json:"replicated_mean"`
	ReplicatedSD   float64 `json:"replicated_sd"`
	PValue         float64 `json:"p_value"`
}

// PPCResult holds the densities of the observed and replicated outcomes on a
// shared grid
type PPCResult struct {
	Grid        []float64
	Observed    []float64
	Replicates  [][]float64
	DrawIndices []int
	Stats       []TestStatistic
}

var testStatistics = []struct {
	name string
	fn   func([]float64) float64
}{
	{"mean", func(x []float64) float64 { return stat.Mean(x, nil) }},
	{"sd", func(x []float64) float64 { return stat.StdDev(x, nil) }},
	{"min", floats.Min},
	{"max", floats.Max},
}

// PosteriorPredictiveCheck draws one replicated outcome vector per sampled
// posterior draw and estimates the density of the observed outcome and of
// every replicate on a common grid.
func PosteriorPredictiveCheck(ctx context.Context, fit *bayes.Fit, design *bayes.Design, y []float64, cfg PPCConfig) (*PPCResult, error) {
	if len(y) < 2 || design.Rows() != len(y) {
		return nil, apperrors.NewModelError("predictive check needs a matching outcome",
			fmt.Errorf("%d outcomes for %d rows", len(y), design.Rows()))
	}
	if cfg.GridPoints < 2 {
		return nil, apperrors.NewAppValidationError("density grid needs at least two points")
	}

	rng := bayes.NewRand(cfg.Seed, ppcStream)
	idx := fit.SubsampleDraws(rng, cfg.Draws)
	reps, err := fit.PosteriorPredictive(rng, design, idx)
	if err != nil {
		return nil, apperrors.NewModelError("failed to draw replicates", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obsBW := Bandwidth(y)
	lo, hi := floats.Min(y), floats.Max(y)
	for _, rep := range reps {
		lo = math.Min(lo, floats.Min(rep))
		hi = math.Max(hi, floats.Max(rep))
	}
	grid := Grid(lo-3*obsBW, hi+3*obsBW, cfg.GridPoints)

	res := &PPCResult{
		Grid:        grid,
		Observed:    Density(y, grid, obsBW),
		Replicates:  make([][]float64, len(reps)),
		DrawIndices: idx,
	}
	for r, rep := range reps {
		if r%50 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		res.Replicates[r] = Density(rep, grid, Bandwidth(rep))
	}

	for _, ts := range testStatistics {
		observed := ts.fn(y)
		values := make([]float64, len(reps))
		above := 0
		for r, rep := range reps {
			values[r] = ts.fn(rep)
			if values[r] >= observed {
				above++
			}
		}
		mean, sd := stat.MeanStdDev(values, nil)
		res.Stats = append(res.Stats, TestStatistic{
			Name:           ts.name,
			Observed:       observed,
			ReplicatedMean: mean,
			ReplicatedSD:   sd,
			PValue:         float64(above) / float64(len(reps)),
		})
	}

	return res, nil
}

// ReplicateBand returns the pointwise 5% and 95% quantiles of the replicated
// densities, for plotting
func (r *PPCResult) ReplicateBand() (lower, upper []float64) {
	lower = make([]float64, len(r.Grid))
	upper = make([]float64, len(r.Grid))
	col := make([]float64, len(r.Replicates))
	for g := range r.Grid {
		for i, rep := range r.Replicates {
			col[i] = rep[g]
		}
		sort.Float64s(col)
		lower[g] = bayes.Quantile(col, 0.05)
		upper[g] = bayes.Quantile(col, 0.95)
	}
	return lower, upper
}
