package exporter

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/dataprocessing"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/evaluation"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/modeling"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	dir := t.TempDir()
	p, err := config.ResolvePaths(config.PathsConfig{
		DataDir:     dir,
		ReportsDir:  filepath.Join(dir, "reports"),
		FilePattern: config.DefaultFilePattern,
	}, config.LoggingConfig{}, "run-test")
	require.NoError(t, err)
	return p
}

// sampleReport runs the modeling stages on a small synthetic table
func sampleReport(t *testing.T) *Report {
	t.Helper()
	ctx := context.Background()
	rng := bayes.NewRand(5, 1)

	ft := &dataprocessing.FeatureTable{ReferenceYear: 2018}
	it := &modeling.ImputedTable{}
	for i := 0; i < 150; i++ {
		f := domain.FeatureRow{
			Borough:  domain.Boroughs[i%len(domain.Boroughs)],
			LandStd:  rng.NormFloat64(),
			GrossStd: rng.NormFloat64(),
			UnitsC:   float64(rng.IntN(3)) - 1,
			Age:      float64(10 + rng.IntN(80)),
		}
		y := 16 - 0.2*float64(f.Borough) + 0.5*f.LandStd + 0.3*f.GrossStd + 0.3*rng.NormFloat64()
		f.Price = math.Exp(y)
		ft.Rows = append(ft.Rows, f)
		it.Rows = append(it.Rows, domain.ModelRow{FeatureRow: f, PriceLog: y})
	}

	sampler := bayes.Config{Chains: 2, Iterations: 300, Warmup: 150, Seed: 3, Priors: bayes.DefaultPriors()}
	models, err := modeling.FitModels(ctx, it, modeling.FitConfig{Sampler: sampler})
	require.NoError(t, err)

	ppc, err := evaluation.PosteriorPredictiveCheck(ctx, models.B, models.DesignB, models.Outcome,
		evaluation.PPCConfig{Draws: 40, GridPoints: 64, Seed: 1})
	require.NoError(t, err)

	cf, err := evaluation.Counterfactual(ctx, models.B, it, evaluation.CounterfactualConfig{
		Formula:   modeling.FormulaB,
		From:      domain.BoroughManhattan,
		To:        domain.BoroughQueens,
		Threshold: 15.5,
		Seed:      1,
	})
	require.NoError(t, err)

	return &Report{
		RunID:    "run-test",
		Started:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration: 1500 * time.Millisecond,
		Config:   config.Default(),
		Stages: []StageCount{
			{Stage: "load", Input: 160, Output: 160},
			{Stage: "filter", Input: 160, Output: 150, Dropped: 10},
			{Stage: "impute", Input: 150, Output: 150, Imputed: 0},
		},
		Scaling:        dataprocessing.Scaling{LandMean: 2500, LandSD: 900, GrossMean: 1800, GrossSD: 700, UnitsMean: 1.6, N: 150},
		EDA:            dataprocessing.Describe(ft),
		Imputation:     modeling.ImputeStats{Observed: 150},
		ModelA:         models.A,
		ModelB:         models.B,
		PPC:            ppc,
		Counterfactual: cf,
	}
}
