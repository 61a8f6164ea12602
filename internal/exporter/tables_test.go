package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogram(t *testing.T) {
	t.Run("sturges bins", func(t *testing.T) {
		values := make([]float64, 100)
		for i := range values {
			values[i] = float64(i)
		}
		centers, counts := Histogram(values, 0)
		require.Len(t, centers, 8)
		require.Len(t, counts, 8)
		total := 0
		for _, c := range counts {
			total += c
		}
		assert.Equal(t, 100, total)
		assert.InDelta(t, 99.0/16, centers[0], 1e-9)
	})

	t.Run("maximum lands in last bin", func(t *testing.T) {
		_, counts := Histogram([]float64{0, 1, 2, 3, 4}, 2)
		assert.Equal(t, []int{2, 3}, counts)
	})

	t.Run("unsorted input", func(t *testing.T) {
		_, counts := Histogram([]float64{4, 0, 3, 1, 2}, 2)
		assert.Equal(t, []int{2, 3}, counts)
	})

	t.Run("constant values", func(t *testing.T) {
		centers, counts := Histogram([]float64{2, 2, 2}, 5)
		assert.Equal(t, []float64{2}, centers)
		assert.Equal(t, []int{3}, counts)
	})

	t.Run("empty", func(t *testing.T) {
		centers, counts := Histogram(nil, 5)
		assert.Nil(t, centers)
		assert.Nil(t, counts)
	})
}

func TestTables(t *testing.T) {
	r := sampleReport(t)

	coef := CoefficientTable(r.Fits()...)
	assert.Equal(t, "model", coef.Headers[0])
	// intercept, predictors and sigma of both models
	assert.Len(t, coef.Rows, (1+8+1)+(1+12+1))

	model := ModelTable(r.ModelB)
	assert.Equal(t, "term", model.Headers[0])
	assert.Equal(t, "(Intercept)", model.Rows[0][0])
	assert.Len(t, model.Rows[0], len(model.Headers))

	eda := EDATable(r.EDA)
	assert.Len(t, eda.Rows, 6)
	assert.Equal(t, "all", eda.Rows[5][0])

	dens := PPCDensityTable(r.PPC)
	assert.Len(t, dens.Rows, 64)
	for _, row := range dens.Rows {
		assert.LessOrEqual(t, row[3].(float64), row[4].(float64))
	}

	cf := CounterfactualTable(r.Counterfactual)
	assert.Contains(t, cf.Headers, "pred_manhattan")
	assert.Contains(t, cf.Headers, "pred_queens")
	assert.Len(t, cf.Rows, r.Counterfactual.Summary.N)

	sel := selectColumns(model, []string{"term", "rhat"})
	assert.Equal(t, []string{"term", "rhat"}, sel.Headers)
	assert.Len(t, sel.Rows[0], 2)
}
