package bayes

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Fit is a fitted regression: the retained posterior draws of every chain.
// It is immutable once returned by Sample.
type Fit struct {
	Name         string
	Names        []string // InterceptName followed by the predictors
	Observations int
	Chains       int
	Draws        int // per chain
	Priors       AdjustedPriors
	Seed         uint64

	coef       [][]float64 // chain*Draws+d -> coefficient vector
	sigma      []float64
	acceptance []float64
	summary    []CoefSummary
}

// CoefSummary summarizes the posterior of one parameter
type CoefSummary struct {
	Name   string  `json:"name"`
	Mean   float64 `json:"mean"`
	SD     float64 `json:"sd"`
	Median float64 `json:"median"`
	MADSD  float64 `json:"mad_sd"`
	Q025   float64 `json:"q2.5"`
	Q975   float64 `json:"q97.5"`
	Rhat   float64 `json:"rhat"`
	ESS    float64 `json:"ess"`
}

// SigmaName labels the residual scale in summaries
const SigmaName = "sigma"

func newFit(cfg Config, predictors []string, n int, priors AdjustedPriors, results []chainResult) *Fit {
	f := &Fit{
		Name:         cfg.Name,
		Names:        append([]string{InterceptName}, predictors...),
		Observations: n,
		Chains:       cfg.Chains,
		Draws:        cfg.Draws(),
		Priors:       priors,
		Seed:         cfg.Seed,
		acceptance:   make([]float64, cfg.Chains),
	}
	for c, r := range results {
		f.coef = append(f.coef, r.coef...)
		f.sigma = append(f.sigma, r.sigma...)
		f.acceptance[c] = float64(r.accepted) / float64(f.Draws)
	}

	for j, name := range f.Names {
		f.summary = append(f.summary, summarize(name, f.chainsOf(func(d int) float64 { return f.coef[d][j] })))
	}
	f.summary = append(f.summary, summarize(SigmaName, f.chainsOf(func(d int) float64 { return f.sigma[d] })))
	return f
}

func (f *Fit) chainsOf(value func(draw int) float64) [][]float64 {
	chains := make([][]float64, f.Chains)
	for c := range chains {
		chains[c] = make([]float64, f.Draws)
		for d := range chains[c] {
			chains[c][d] = value(c*f.Draws + d)
		}
	}
	return chains
}

func summarize(name string, chains [][]float64) CoefSummary {
	var all []float64
	for _, c := range chains {
		all = append(all, c...)
	}
	sorted := append([]float64(nil), all...)
	sort.Float64s(sorted)

	mean, sd := stat.MeanStdDev(all, nil)
	return CoefSummary{
		Name:   name,
		Mean:   mean,
		SD:     sd,
		Median: Quantile(sorted, 0.5),
		MADSD:  MADSD(all),
		Q025:   Quantile(sorted, 0.025),
		Q975:   Quantile(sorted, 0.975),
		Rhat:   SplitRhat(chains),
		ESS:    EffectiveSampleSize(chains),
	}
}

// NumDraws returns the number of retained draws over all chains
func (f *Fit) NumDraws() int { return len(f.coef) }

// Summary returns the posterior summary of every coefficient followed by sigma
func (f *Fit) Summary() []CoefSummary {
	return append([]CoefSummary(nil), f.summary...)
}

// Coefficient returns the summary of a named parameter
func (f *Fit) Coefficient(name string) (CoefSummary, bool) {
	for _, s := range f.summary {
		if s.Name == name {
			return s, true
		}
	}
	return CoefSummary{}, false
}

// Flagged returns the summaries whose R-hat or effective sample size suggests
// the chains have not mixed
func (f *Fit) Flagged() []CoefSummary {
	var out []CoefSummary
	for _, s := range f.summary {
		if s.Rhat > RhatWarning || s.ESS < ESSWarningPerChain*float64(f.Chains) {
			out = append(out, s)
		}
	}
	return out
}

// CoefMeans returns the posterior mean of every coefficient, intercept first
func (f *Fit) CoefMeans() []float64 {
	out := make([]float64, len(f.Names))
	for j := range f.Names {
		out[j] = f.summary[j].Mean
	}
	return out
}

// Draw returns coefficient draw d, intercept first
func (f *Fit) Draw(d int) []float64 {
	return append([]float64(nil), f.coef[d]...)
}

// SigmaDraws returns every sigma draw
func (f *Fit) SigmaDraws() []float64 {
	return append([]float64(nil), f.sigma...)
}

// AcceptanceRates returns the sigma acceptance rate of each chain
func (f *Fit) AcceptanceRates() []float64 {
	return append([]float64(nil), f.acceptance...)
}

// Linpred returns the linear predictor of x (predictors only) under draw d
func (f *Fit) Linpred(x []float64, d int) float64 {
	b := f.coef[d]
	v := b[0]
	for j, xj := range x {
		v += b[j+1] * xj
	}
	return v
}

// PredictDraws returns one posterior predictive draw of x for each draw index
func (f *Fit) PredictDraws(rng *rand.Rand, x []float64, draws []int) []float64 {
	out := make([]float64, len(draws))
	for i, d := range draws {
		out[i] = f.Linpred(x, d) + f.sigma[d]*rng.NormFloat64()
	}
	return out
}

// PosteriorPredictive returns one replicated outcome vector over all rows of
// design for each draw index.
func (f *Fit) PosteriorPredictive(rng *rand.Rand, design *Design, draws []int) ([][]float64, error) {
	if design.Cols() != len(f.Names)-1 {
		return nil, fmt.Errorf("design has %d predictors, fit %s has %d", design.Cols(), f.Name, len(f.Names)-1)
	}
	n := design.Rows()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = design.Row(i)
	}
	reps := make([][]float64, len(draws))
	for r, d := range draws {
		rep := make([]float64, n)
		for i, x := range rows {
			rep[i] = f.Linpred(x, d) + f.sigma[d]*rng.NormFloat64()
		}
		reps[r] = rep
	}
	return reps, nil
}

// SubsampleDraws picks m distinct draw indices, or all draws when m is not
// smaller than the number of draws.
func (f *Fit) SubsampleDraws(rng *rand.Rand, m int) []int {
	total := f.NumDraws()
	if m <= 0 || m >= total {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := rng.Perm(total)[:m]
	sort.Ints(idx)
	return idx
}

// MeanPrediction returns the mean of posterior predictive draws at x over all
// draws
func (f *Fit) MeanPrediction(rng *rand.Rand, x []float64) float64 {
	var s float64
	for d := range f.coef {
		s += f.Linpred(x, d) + f.sigma[d]*rng.NormFloat64()
	}
	return s / float64(len(f.coef))
}

// Index returns the position of a coefficient in Names, or -1
func (f *Fit) Index(name string) int {
	for j, n := range f.Names {
		if n == name {
			return j
		}
	}
	return -1
}

// finite reports whether every summary value is a number
func (s CoefSummary) finite() bool {
	for _, v := range []float64{s.Mean, s.Median, s.Q025, s.Q975} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
