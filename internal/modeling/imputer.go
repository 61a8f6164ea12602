package modeling

import (
	"context"
	"log/slog"
	"math"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/dataprocessing"
	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// imputeStream is the random stream used for predictive draws of missing
// prices, apart from the chain streams.
const imputeStream = 1 << 20

// ImputeConfig controls the imputation model
type ImputeConfig struct {
	Sampler bayes.Config
	Logger  *slog.Logger
}

// ImputedTable is the modeling population with a log-price outcome on every row
type ImputedTable struct {
	Rows    []domain.ModelRow
	Scaling dataprocessing.Scaling
	// Fit is the imputation model, nil when no price was missing
	Fit *bayes.Fit
}

// Len returns the number of rows
func (it *ImputedTable) Len() int { return len(it.Rows) }

// Features returns the feature part of every row
func (it *ImputedTable) Features() []domain.FeatureRow {
	out := make([]domain.FeatureRow, len(it.Rows))
	for i, r := range it.Rows {
		out[i] = r.FeatureRow
	}
	return out
}

// Outcome returns price_log of every row
func (it *ImputedTable) Outcome() []float64 {
	out := make([]float64, len(it.Rows))
	for i, r := range it.Rows {
		out[i] = r.PriceLog
	}
	return out
}

// ImputeStats counts observed and imputed outcomes
type ImputeStats struct {
	Observed int
	Imputed  int
}

// Impute fits log(price) on the features of rows with an observed price and
// fills each missing price_log with the mean of the posterior predictive
// draws at that row. Observed rows get log(price) unchanged. No row is dropped.
func Impute(ctx context.Context, ft *dataprocessing.FeatureTable, cfg ImputeConfig) (*ImputedTable, ImputeStats, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	out := &ImputedTable{
		Rows:    make([]domain.ModelRow, len(ft.Rows)),
		Scaling: ft.Scaling,
	}
	var stats ImputeStats
	var observed []domain.FeatureRow
	var y []float64
	for i, r := range ft.Rows {
		out.Rows[i] = domain.ModelRow{FeatureRow: r, PriceLog: math.NaN()}
		if r.HasPrice() {
			out.Rows[i].PriceLog = math.Log(r.Price)
			observed = append(observed, r)
			y = append(y, out.Rows[i].PriceLog)
			stats.Observed++
		}
	}
	stats.Imputed = len(ft.Rows) - stats.Observed

	if stats.Imputed == 0 {
		logger.InfoContext(ctx, "No missing prices to impute", slog.Int("rows", len(ft.Rows)))
		return out, stats, nil
	}
	if stats.Observed < 2 {
		return nil, stats, apperrors.NewModelError("too few observed prices to fit the imputation model", apperrors.ErrNoRows).
			WithContext("observed", stats.Observed)
	}

	design, err := ImputationFormula.Design(observed)
	if err != nil {
		return nil, stats, apperrors.NewModelError("failed to build imputation design", err)
	}

	scfg := cfg.Sampler
	scfg.Name = ImputationFormula.Name
	if scfg.Logger == nil {
		scfg.Logger = logger
	}
	fit, err := bayes.Sample(ctx, design, y, scfg)
	if err != nil {
		return nil, stats, err
	}
	out.Fit = fit

	rng := bayes.NewRand(scfg.Seed, imputeStream)
	for i := range out.Rows {
		if !math.IsNaN(out.Rows[i].PriceLog) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		x := ImputationFormula.Row(out.Rows[i].FeatureRow)
		out.Rows[i].PriceLog = fit.MeanPrediction(rng, x)
		out.Rows[i].Imputed = true
	}

	logger.InfoContext(ctx, "Imputed missing prices",
		slog.Int("observed", stats.Observed),
		slog.Int("imputed", stats.Imputed))

	return out, stats, nil
}
