package modeling

import (
	"context"
	"log/slog"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
)

// FitConfig controls the two outcome models
type FitConfig struct {
	Sampler bayes.Config
	Logger  *slog.Logger
}

// Models holds the additive and interaction fits and their designs
type Models struct {
	A       *bayes.Fit
	B       *bayes.Fit
	DesignA *bayes.Design
	DesignB *bayes.Design
	Outcome []float64
}

// FitModels fits the additive model and the land_std by borough interaction
// model on price_log with the same priors. Each model gets its own seed
// offset so their Monte Carlo noise is independent.
func FitModels(ctx context.Context, it *ImputedTable, cfg FitConfig) (*Models, error) {
	if it.Len() < 2 {
		return nil, apperrors.NewModelError("too few rows to fit models", apperrors.ErrNoRows)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	features := it.Features()
	m := &Models{Outcome: it.Outcome()}

	for i, model := range []struct {
		formula Formula
		design  **bayes.Design
		fit     **bayes.Fit
	}{
		{FormulaA, &m.DesignA, &m.A},
		{FormulaB, &m.DesignB, &m.B},
	} {
		design, err := model.formula.Design(features)
		if err != nil {
			return nil, apperrors.NewModelError("failed to build design", err).
				WithContext("model", model.formula.Name)
		}

		scfg := cfg.Sampler
		scfg.Name = model.formula.Name
		scfg.Seed += uint64(i + 1)
		if scfg.Logger == nil {
			scfg.Logger = logger
		}
		fit, err := bayes.Sample(ctx, design, m.Outcome, scfg)
		if err != nil {
			return nil, err
		}
		*model.design = design
		*model.fit = fit
	}

	return m, nil
}
