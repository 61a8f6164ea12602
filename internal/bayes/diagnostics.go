package bayes

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Thresholds above (R-hat) or below (ESS per chain) which a coefficient is
// reported as poorly mixed.
const (
	RhatWarning        = 1.05
	ESSWarningPerChain = 100
)

// splitChains halves every chain, dropping the middle draw of odd lengths
func splitChains(chains [][]float64) [][]float64 {
	out := make([][]float64, 0, 2*len(chains))
	for _, c := range chains {
		half := len(c) / 2
		out = append(out, c[:half], c[len(c)-half:])
	}
	return out
}

// SplitRhat is the potential scale reduction factor computed on split chains.
// It returns NaN when it is undefined (too few draws or no variation).
func SplitRhat(chains [][]float64) float64 {
	split := splitChains(chains)
	m := len(split)
	if m < 2 || len(split[0]) < 2 {
		return math.NaN()
	}
	n := float64(len(split[0]))

	means := make([]float64, m)
	vars := make([]float64, m)
	for j, c := range split {
		means[j], vars[j] = stat.MeanVariance(c, nil)
	}
	w := stat.Mean(vars, nil)
	b := n * stat.Variance(means, nil)
	if w == 0 {
		return math.NaN()
	}
	varPlus := (n-1)/n*w + b/n
	return math.Sqrt(varPlus / w)
}

// EffectiveSampleSize estimates the number of independent draws across split
// chains using Geyer's initial positive sequence on the combined
// autocorrelations.
func EffectiveSampleSize(chains [][]float64) float64 {
	split := splitChains(chains)
	m := len(split)
	if m < 1 || len(split[0]) < 4 {
		return math.NaN()
	}
	n := len(split[0])
	nf := float64(n)

	centered := make([][]float64, m)
	means := make([]float64, m)
	for j, c := range split {
		means[j] = stat.Mean(c, nil)
		centered[j] = make([]float64, n)
		for i, v := range c {
			centered[j][i] = v - means[j]
		}
	}

	var w float64
	for j := range split {
		w += autocovariance(centered[j], 0) * nf / (nf - 1)
	}
	w /= float64(m)
	varPlus := w * (nf - 1) / nf
	if m > 1 {
		varPlus += stat.Variance(means, nil)
	}
	if varPlus == 0 {
		return math.NaN()
	}

	rho := func(t int) float64 {
		var s float64
		for j := range centered {
			s += autocovariance(centered[j], t)
		}
		return 1 - (w-s/float64(m))/varPlus
	}

	// sum of positive, monotonically decreasing pair sums
	tau := 0.0
	prev := math.Inf(1)
	for t := 0; t+1 < n; t += 2 {
		pair := rho(t) + rho(t+1)
		if pair <= 0 {
			break
		}
		if pair > prev {
			pair = prev
		}
		tau += pair
		prev = pair
	}
	tau = -1 + 2*tau
	total := float64(m * n)
	if tau < 1/math.Log10(total) {
		tau = 1 / math.Log10(total)
	}
	return total / tau
}

// autocovariance returns the biased autocovariance of centered x at lag t
func autocovariance(centered []float64, t int) float64 {
	var s float64
	for i := 0; i+t < len(centered); i++ {
		s += centered[i] * centered[i+t]
	}
	return s / float64(len(centered))
}

// Quantile returns the q-quantile of sorted with linear interpolation
// between order statistics (R's default, type 7). gonum's stat.Quantile only
// offers the empirical and type 4 estimators, which disagree with posterior
// summaries reported by R for the same draws.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// MADSD is the median absolute deviation scaled to match the SD of a normal
func MADSD(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	dev := append([]float64(nil), x...)
	sort.Float64s(dev)
	floats.AddConst(-Quantile(dev, 0.5), dev)
	for i, v := range dev {
		dev[i] = math.Abs(v)
	}
	sort.Float64s(dev)
	return 1.4826 * Quantile(dev, 0.5)
}
