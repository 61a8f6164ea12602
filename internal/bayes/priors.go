package bayes

import (
	"fmt"
	"math"
)

// Priors are the regression priors. Coefficients get
// Normal(CoefficientMean, CoefficientScale), the intercept (on centered
// predictors) Normal(InterceptMean, InterceptScale) and the residual scale
// Exponential(AuxRate).
//
// With Autoscale the coefficient scales are multiplied by sd(y)/sd(x), or by
// sd(y)/(max(x)-min(x)) when x takes exactly two values, the
// intercept is located at mean(y)+InterceptMean with scale InterceptScale*sd(y)
// and the aux rate is divided by sd(y), so the defaults are weakly
// informative whatever the units of the data.
type Priors struct {
	CoefficientMean  float64 `json:"coefficient_mean"`
	CoefficientScale float64 `json:"coefficient_scale"`
	InterceptMean    float64 `json:"intercept_mean"`
	InterceptScale   float64 `json:"intercept_scale"`
	AuxRate          float64 `json:"aux_rate"`
	Autoscale        bool    `json:"autoscale"`
}

// DefaultPriors are Normal(0, 2.5) on coefficients and intercept and
// Exponential(1) on sigma, autoscaled.
func DefaultPriors() Priors {
	return Priors{
		CoefficientScale: 2.5,
		InterceptScale:   2.5,
		AuxRate:          1,
		Autoscale:        true,
	}
}

// Validate checks that scales and rate are positive
func (p Priors) Validate() error {
	if !(p.CoefficientScale > 0) || !(p.InterceptScale > 0) || !(p.AuxRate > 0) {
		return fmt.Errorf("prior scales and rate must be positive: %+v", p)
	}
	return nil
}

// AdjustedPriors are the priors actually used for a fit after autoscaling.
// Index 0 of Mean and Scale is the intercept.
type AdjustedPriors struct {
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
	AuxRate float64   `json:"aux_rate"`
}

// adjust resolves the priors for a design with the given predictor scales and
// outcome moments. Constant predictors keep the unscaled coefficient prior.
func (p Priors) adjust(xscale []float64, ymean, ysd float64) AdjustedPriors {
	k := len(xscale) + 1
	adj := AdjustedPriors{
		Mean:    make([]float64, k),
		Scale:   make([]float64, k),
		AuxRate: p.AuxRate,
	}
	adj.Mean[0] = p.InterceptMean
	adj.Scale[0] = p.InterceptScale
	for j := 1; j < k; j++ {
		adj.Mean[j] = p.CoefficientMean
		adj.Scale[j] = p.CoefficientScale
	}

	if !p.Autoscale || !(ysd > 0) || math.IsNaN(ysd) {
		return adj
	}

	adj.Mean[0] += ymean
	adj.Scale[0] *= ysd
	for j, s := range xscale {
		if s > 0 {
			adj.Scale[j+1] *= ysd / s
		}
	}
	adj.AuxRate /= ysd
	return adj
}
