package bayes

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
)

// simulate draws y = 2 + 1.5 x1 - 0.5 x2 + N(0, 0.3)
func simulate(t *testing.T, n int, seed uint64) (*Design, []float64) {
	t.Helper()
	rng := NewRand(seed, 99)
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i := range rows {
		x1 := rng.NormFloat64()
		x2 := 10 + 3*rng.NormFloat64()
		rows[i] = []float64{x1, x2}
		y[i] = 2 + 1.5*x1 - 0.5*x2 + 0.3*rng.NormFloat64()
	}
	d, err := NewDesign([]string{"x1", "x2"}, rows)
	require.NoError(t, err)
	return d, y
}

func testConfig() Config {
	return Config{
		Name:       "test",
		Chains:     2,
		Iterations: 600,
		Warmup:     200,
		Seed:       42,
		Priors:     DefaultPriors(),
	}
}

func TestSample_RecoversCoefficients(t *testing.T) {
	d, y := simulate(t, 1000, 1)

	fit, err := Sample(context.Background(), d, y, testConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{InterceptName, "x1", "x2"}, fit.Names)
	assert.Equal(t, 800, fit.NumDraws())
	assert.Equal(t, 1000, fit.Observations)

	want := map[string]float64{InterceptName: 2, "x1": 1.5, "x2": -0.5, SigmaName: 0.3}
	for name, value := range want {
		s, ok := fit.Coefficient(name)
		require.True(t, ok, name)
		assert.InDelta(t, value, s.Mean, 0.15, name)
		assert.Greater(t, s.SD, 0.0, name)
		assert.Less(t, s.Q025, s.Median, name)
		assert.Less(t, s.Median, s.Q975, name)
		assert.Less(t, s.Rhat, 1.1, name)
		assert.Greater(t, s.ESS, 100.0, name)
	}

	for _, rate := range fit.AcceptanceRates() {
		assert.Greater(t, rate, 0.5, "the exponential prior barely moves sigma")
	}

	means := fit.CoefMeans()
	assert.Len(t, means, 3)
	assert.InDelta(t, 1.5, means[1], 0.15)
}

func TestSample_Reproducible(t *testing.T) {
	d, y := simulate(t, 80, 2)

	cfg := testConfig()
	cfg.Parallelism = 1
	first, err := Sample(context.Background(), d, y, cfg)
	require.NoError(t, err)

	cfg.Parallelism = 4
	second, err := Sample(context.Background(), d, y, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Summary(), second.Summary(), "scheduling must not change results")
	assert.Equal(t, first.Draw(17), second.Draw(17))

	cfg.Seed = 43
	third, err := Sample(context.Background(), d, y, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first.CoefMeans(), third.CoefMeans())
}

func TestSample_PriorShrinkage(t *testing.T) {
	d, y := simulate(t, 50, 3)

	cfg := testConfig()
	cfg.Priors = Priors{CoefficientScale: 1e-4, InterceptScale: 100, AuxRate: 1}
	fit, err := Sample(context.Background(), d, y, cfg)
	require.NoError(t, err)

	s, _ := fit.Coefficient("x1")
	assert.InDelta(t, 0, s.Mean, 0.01)
}

type countingProgress struct{ n atomic.Int64 }

func (p *countingProgress) Add(num int) error {
	p.n.Add(int64(num))
	return nil
}

func TestSample_Progress(t *testing.T) {
	d, y := simulate(t, 30, 4)
	progress := &countingProgress{}

	cfg := testConfig()
	cfg.Iterations, cfg.Warmup = 100, 50
	cfg.Progress = progress
	_, err := Sample(context.Background(), d, y, cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 200, progress.n.Load())
}

func TestSample_Errors(t *testing.T) {
	d, y := simulate(t, 20, 5)

	tests := []struct {
		name    string
		y       []float64
		mutate  func(*Config)
		errType apperrors.ErrorType
	}{
		{name: "length mismatch", y: y[:10], errType: apperrors.ErrTypeModel},
		{name: "missing outcome", y: append(append([]float64(nil), y[:19]...), math.NaN()), errType: apperrors.ErrTypeModel},
		{name: "warmup too long", y: y, mutate: func(c *Config) { c.Warmup = c.Iterations }, errType: apperrors.ErrTypeConfig},
		{name: "no chains", y: y, mutate: func(c *Config) { c.Chains = 0 }, errType: apperrors.ErrTypeConfig},
		{name: "bad prior", y: y, mutate: func(c *Config) { c.Priors.AuxRate = 0 }, errType: apperrors.ErrTypeConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			_, err := Sample(context.Background(), d, tt.y, cfg)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.errType), err.Error())
		})
	}
}

func TestSample_Cancelled(t *testing.T) {
	d, y := simulate(t, 20, 6)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sample(ctx, d, y, testConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPriorsAdjust(t *testing.T) {
	p := DefaultPriors()
	adj := p.adjust([]float64{2, 0}, 13, 0.5)

	assert.Equal(t, []float64{13, 0, 0}, adj.Mean)
	assert.InDelta(t, 1.25, adj.Scale[0], 1e-12)
	assert.InDelta(t, 0.625, adj.Scale[1], 1e-12)
	assert.InDelta(t, 2.5, adj.Scale[2], 1e-12, "constant predictor keeps the raw scale")
	assert.InDelta(t, 2, adj.AuxRate, 1e-12)

	p.Autoscale = false
	adj = p.adjust([]float64{2}, 13, 0.5)
	assert.Equal(t, []float64{0, 0}, adj.Mean)
	assert.Equal(t, []float64{2.5, 2.5}, adj.Scale)
	assert.Equal(t, 1.0, adj.AuxRate)
}

func TestPriorScales(t *testing.T) {
	d, err := NewDesign([]string{"boroughqueens", "land_std", "const"}, [][]float64{
		{0, -1.2, 1},
		{1, 0.3, 1},
		{0, 0.9, 1},
		{1, 0.0, 1},
	})
	require.NoError(t, err)

	_, sds := d.columnMoments()
	scales := d.priorScales(sds)
	assert.Equal(t, 1.0, scales[0], "indicator scaled by its range")
	assert.InDelta(t, sds[1], scales[1], 1e-12)
	assert.Equal(t, 0.0, scales[2])

	adj := DefaultPriors().adjust(scales, 13, 0.5)
	assert.InDelta(t, 1.25, adj.Scale[1], 1e-12)
	assert.InDelta(t, 2.5, adj.Scale[3], 1e-12)
}

func TestNewDesign(t *testing.T) {
	d, err := NewDesign([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Rows())
	assert.Equal(t, 2, d.Cols())
	assert.Equal(t, []float64{3, 4}, d.Row(1))
	assert.Equal(t, 1, d.Index("b"))
	assert.Equal(t, -1, d.Index("c"))

	_, err = NewDesign([]string{"a"}, [][]float64{{1, 2}})
	assert.Error(t, err)
	_, err = NewDesign([]string{"a"}, nil)
	assert.Error(t, err)
}
