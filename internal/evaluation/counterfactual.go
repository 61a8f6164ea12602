package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/modeling"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// counterfactualStream is the random stream of counterfactual predictions
const counterfactualStream = 3 << 20

// CounterfactualConfig selects the records to move and where to move them
type CounterfactualConfig struct {
	Formula   modeling.Formula
	From      domain.Borough
	To        domain.Borough
	Threshold float64
	// Draws is the number of posterior draws per prediction, 0 for all
	Draws  int
	Seed   uint64
	Logger *slog.Logger
}

// CounterfactualRecord is one selected sale predicted in both boroughs
type CounterfactualRecord struct {
	Row       int     `json:"row"`
	PriceLog  float64 `json:"price_log"`
	LandStd   float64 `json:"land_std"`
	GrossStd  float64 `json:"gross_std"`
	UnitsC    float64 `json:"units_c"`
	Age       float64 `json:"age"`
	Imputed   bool    `json:"imputed"`
	PredFrom  float64 `json:"pred_from"`
	PredTo    float64 `json:"pred_to"`
	Diff      float64 `json:"diff"`
	MeanShift float64 `json:"mean_shift"`
}

// DiffSummary describes the distribution of per-record differences
type DiffSummary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	SD     float64 `json:"sd"`
	Median float64 `json:"median"`
	Q025   float64 `json:"q025"`
	Q975   float64 `json:"q975"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CounterfactualResult holds per-record differences pred_from - pred_to
type CounterfactualResult struct {
	From      domain.Borough
	To        domain.Borough
	Threshold float64
	Records   []CounterfactualRecord
	Summary   DiffSummary
	// MeanShift is the average difference implied by posterior mean
	// coefficients alone, without predictive noise
	MeanShift float64
}

// Diffs returns the per-record differences
func (r *CounterfactualResult) Diffs() []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Diff
	}
	return out
}

// Counterfactual selects the rows of cfg.From whose price_log is at least
// cfg.Threshold, clones each into cfg.To keeping every other feature, and
// compares the mean posterior predictive log price of original and clone.
// An empty selection is not an error.
func Counterfactual(ctx context.Context, fit *bayes.Fit, it *modeling.ImputedTable, cfg CounterfactualConfig) (*CounterfactualResult, error) {
	if !cfg.From.Valid() || !cfg.To.Valid() || cfg.From == cfg.To {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("counterfactual needs two distinct boroughs, got %s and %s", cfg.From, cfg.To))
	}
	if got, want := len(fit.Names)-1, len(cfg.Formula.Terms()); got != want {
		return nil, apperrors.NewModelError("formula does not match fit",
			fmt.Errorf("fit %s has %d predictors, formula %s has %d", fit.Name, got, cfg.Formula.Name, want))
	}

	rng := bayes.NewRand(cfg.Seed, counterfactualStream)
	draws := fit.SubsampleDraws(rng, cfg.Draws)
	means := fit.CoefMeans()

	res := &CounterfactualResult{From: cfg.From, To: cfg.To, Threshold: cfg.Threshold}
	for i, row := range it.Rows {
		if row.Borough != cfg.From || row.PriceLog < cfg.Threshold {
			continue
		}
		if len(res.Records)%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		clone := row.FeatureRow
		clone.Borough = cfg.To
		xFrom := cfg.Formula.Row(row.FeatureRow)
		xTo := cfg.Formula.Row(clone)

		predFrom := stat.Mean(fit.PredictDraws(rng, xFrom, draws), nil)
		predTo := stat.Mean(fit.PredictDraws(rng, xTo, draws), nil)

		var shift float64
		for j := range xFrom {
			shift += means[j+1] * (xFrom[j] - xTo[j])
		}

		res.Records = append(res.Records, CounterfactualRecord{
			Row:       i,
			PriceLog:  row.PriceLog,
			LandStd:   row.LandStd,
			GrossStd:  row.GrossStd,
			UnitsC:    row.UnitsC,
			Age:       row.Age,
			Imputed:   row.Imputed,
			PredFrom:  predFrom,
			PredTo:    predTo,
			Diff:      predFrom - predTo,
			MeanShift: shift,
		})
	}

	res.Summary = summarizeDiffs(res.Diffs())
	res.MeanShift = math.NaN()
	if len(res.Records) > 0 {
		var s float64
		for _, rec := range res.Records {
			s += rec.MeanShift
		}
		res.MeanShift = s / float64(len(res.Records))
	} else if cfg.Logger != nil {
		cfg.Logger.WarnContext(ctx, "no sales selected for counterfactual",
			slog.String("from", cfg.From.String()),
			slog.Float64("threshold", cfg.Threshold))
	}
	return res, nil
}

func summarizeDiffs(d []float64) DiffSummary {
	s := DiffSummary{N: len(d)}
	if len(d) == 0 {
		nan := math.NaN()
		s.Mean, s.SD, s.Median, s.Q025, s.Q975, s.Min, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sorted := append([]float64(nil), d...)
	sort.Float64s(sorted)
	s.Mean = stat.Mean(d, nil)
	s.SD = math.NaN()
	if len(d) > 1 {
		s.SD = stat.StdDev(d, nil)
	}
	s.Median = bayes.Quantile(sorted, 0.5)
	s.Q025 = bayes.Quantile(sorted, 0.025)
	s.Q975 = bayes.Quantile(sorted, 0.975)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	return s
}
