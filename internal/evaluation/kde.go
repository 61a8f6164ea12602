package evaluation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// kernelCutoff is how many bandwidths the Gaussian kernel is evaluated for
const kernelCutoff = 4

// Bandwidth is Silverman's rule of thumb: 0.9 min(sd, IQR/1.34) n^(-1/5)
func Bandwidth(x []float64) float64 {
	n := len(x)
	if n < 2 {
		return 1
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	sd := stat.StdDev(x, nil)
	iqr := stat.Quantile(0.75, stat.LinInterp, sorted, nil) - stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	spread := sd
	if q := iqr / 1.34; q > 0 && q < spread {
		spread = q
	}
	if !(spread > 0) {
		spread = math.Abs(sorted[0])
		if spread == 0 {
			spread = 1
		}
	}
	return 0.9 * spread * math.Pow(float64(n), -0.2)
}

// Grid returns points evenly spaced over [lo, hi]
func Grid(lo, hi float64, points int) []float64 {
	grid := make([]float64, points)
	if points == 1 {
		grid[0] = (lo + hi) / 2
		return grid
	}
	step := (hi - lo) / float64(points-1)
	for i := range grid {
		grid[i] = lo + float64(i)*step
	}
	return grid
}

// Density estimates the Gaussian kernel density of x on an evenly spaced
// grid. Observations are linearly binned onto the grid first, so the cost
// does not grow with len(x) times len(grid).
func Density(x, grid []float64, bandwidth float64) []float64 {
	g := len(grid)
	dens := make([]float64, g)
	if len(x) == 0 || g < 2 {
		return dens
	}
	lo := grid[0]
	step := grid[1] - grid[0]

	weights := make([]float64, g)
	for _, v := range x {
		pos := (v - lo) / step
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i >= 0 && i < g {
			weights[i] += 1 - f
		}
		if i+1 >= 0 && i+1 < g {
			weights[i+1] += f
		}
	}

	reach := int(math.Ceil(kernelCutoff * bandwidth / step))
	kernel := make([]float64, reach+1)
	for k := range kernel {
		kernel[k] = distuv.UnitNormal.Prob(float64(k)*step/bandwidth) / bandwidth
	}

	n := float64(len(x))
	for i := range dens {
		var s float64
		from, to := max(0, i-reach), min(g-1, i+reach)
		for j := from; j <= to; j++ {
			if weights[j] == 0 {
				continue
			}
			k := i - j
			if k < 0 {
				k = -k
			}
			s += weights[j] * kernel[k]
		}
		dens[i] = s / n
	}
	return dens
}
