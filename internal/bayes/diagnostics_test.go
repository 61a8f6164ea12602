package bayes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalChains(seed uint64, chains, n int, shift float64) [][]float64 {
	out := make([][]float64, chains)
	for c := range out {
		rng := NewRand(seed, uint64(c))
		out[c] = make([]float64, n)
		for i := range out[c] {
			out[c][i] = rng.NormFloat64() + shift*float64(c)
		}
	}
	return out
}

func TestSplitRhat(t *testing.T) {
	assert.InDelta(t, 1.0, SplitRhat(normalChains(1, 4, 1000, 0)), 0.02)
	assert.Greater(t, SplitRhat(normalChains(1, 4, 1000, 2)), 1.5, "chains stuck at different means")
	assert.True(t, math.IsNaN(SplitRhat([][]float64{{1, 1, 1, 1}, {1, 1, 1, 1}})))
	assert.True(t, math.IsNaN(SplitRhat([][]float64{{1}})))
}

func TestEffectiveSampleSize(t *testing.T) {
	iid := normalChains(2, 4, 1000, 0)
	ess := EffectiveSampleSize(iid)
	assert.Greater(t, ess, 2500.0)
	assert.Less(t, ess, 6000.0)

	// AR(1) with phi = 0.95 has ESS around n (1-phi)/(1+phi)
	rng := NewRand(3, 0)
	ar := make([][]float64, 4)
	for c := range ar {
		ar[c] = make([]float64, 1000)
		x := 0.0
		for i := range ar[c] {
			x = 0.95*x + rng.NormFloat64()
			ar[c][i] = x
		}
	}
	assert.Less(t, EffectiveSampleSize(ar), 600.0)

	assert.True(t, math.IsNaN(EffectiveSampleSize([][]float64{{1, 2}})))
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, Quantile(sorted, 0.5))
	assert.Equal(t, 1.0, Quantile(sorted, 0))
	assert.Equal(t, 5.0, Quantile(sorted, 1))
	assert.InDelta(t, 1.1, Quantile(sorted, 0.025), 1e-12)
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestMADSD(t *testing.T) {
	assert.InDelta(t, 1.4826, MADSD([]float64{1, 2, 3, 4, 5}), 1e-12)
	assert.InDelta(t, 1.0, MADSD(normalChains(4, 1, 20000, 0)[0]), 0.05)
	assert.True(t, math.IsNaN(MADSD(nil)))
}

func TestInvGammaRand(t *testing.T) {
	rng := NewRand(5, 0)
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		v := invGammaRand(rng, 10, 18)
		require.Greater(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 2.0, sum/n, 0.05, "mean of InvGamma(a, b) is b/(a-1)")

	a, b := NewRand(9, 3), NewRand(9, 3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, invGammaRand(a, 3, 2), invGammaRand(b, 3, 2), "same stream, same draws")
	}
}
