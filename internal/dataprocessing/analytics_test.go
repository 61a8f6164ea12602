package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestDescribe(t *testing.T) {
	nan := math.NaN()
	ft := &FeatureTable{Rows: []domain.FeatureRow{
		{Borough: domain.BoroughQueens, LandArea: 2000, GrossArea: 1500, TotalUnits: 1, Age: 60, Price: 500000, LandStd: -1, GrossStd: -1},
		{Borough: domain.BoroughQueens, LandArea: 3000, GrossArea: 2500, TotalUnits: 2, Age: 40, Price: 900000, LandStd: 0.5, GrossStd: 1},
		{Borough: domain.BoroughQueens, LandArea: 2500, GrossArea: 2000, TotalUnits: 1, Age: 50, Price: nan, LandStd: 0, GrossStd: 0},
		{Borough: domain.BoroughManhattan, LandArea: 1800, GrossArea: 6000, TotalUnits: 3, Age: 110, Price: 4000000, LandStd: 0.5, GrossStd: 0},
	}}

	report := Describe(ft)
	require.Len(t, report.Boroughs, 2)

	manhattan, queens := report.Boroughs[0], report.Boroughs[1]
	assert.Equal(t, "manhattan", manhattan.Borough)
	assert.Equal(t, "queens", queens.Borough)

	assert.Equal(t, 3, queens.Count)
	assert.Equal(t, 1, queens.MissingPrice)
	assert.InDelta(t, 1.0/3, queens.MissingShare(), 1e-12)
	assert.Equal(t, 700000.0, queens.MedianPrice)
	assert.InDelta(t, (math.Log(500000)+math.Log(900000))/2, queens.MeanLogPrice, 1e-12)
	assert.Equal(t, 2500.0, queens.MeanLand)
	assert.Equal(t, 50.0, queens.MeanAge)

	assert.True(t, math.IsNaN(manhattan.SDLogPrice), "one price has no spread")
	assert.Equal(t, 4, report.Overall.Count)
	assert.Equal(t, "all", report.Overall.Borough)

	require.Len(t, report.Correlations, 4)
	assert.Equal(t, "land_std", report.Correlations[0].Feature)
	assert.Equal(t, 3, report.Correlations[0].N)
	for _, c := range report.Correlations[:2] {
		assert.GreaterOrEqual(t, c.R, -1.0)
		assert.LessOrEqual(t, c.R, 1.0)
	}
}
