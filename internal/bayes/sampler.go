package bayes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
)

// Progress receives one tick per sampler iteration of any chain.
// *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(num int) error
}

// Config controls one posterior sampling run
type Config struct {
	Name        string
	Chains      int
	Iterations  int
	Warmup      int
	Seed        uint64
	Parallelism int
	Priors      Priors
	Progress    Progress
	Logger      *slog.Logger
}

// Draws returns the number of retained draws per chain
func (c Config) Draws() int {
	return c.Iterations - c.Warmup
}

func (c Config) workers() int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return runtime.NumCPU()
}

func (c Config) validate() error {
	if c.Chains < 1 {
		return fmt.Errorf("chains must be at least 1, got %d", c.Chains)
	}
	if c.Warmup < 0 || c.Draws() < 1 {
		return fmt.Errorf("iterations (%d) must exceed warmup (%d)", c.Iterations, c.Warmup)
	}
	return c.Priors.Validate()
}

// checkEvery is how often a chain looks at its context
const checkEvery = 64

// Sample draws from the posterior of y = a + X b + e, e ~ Normal(0, sigma).
//
// Coefficients are updated jointly from their Normal full conditional given
// sigma. Sigma is updated by independence Metropolis-Hastings with the
// flat-prior conditional as proposal, so the acceptance ratio reduces to the
// ratio of the Exponential prior densities.
func Sample(ctx context.Context, d *Design, y []float64, cfg Config) (*Fit, error) {
	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid sampler configuration", err)
	}
	n := d.Rows()
	if n != len(y) {
		return nil, apperrors.NewModelError("outcome length does not match design",
			fmt.Errorf("%d outcomes for %d rows", len(y), n))
	}
	if n < 2 {
		return nil, apperrors.NewModelError("need at least two observations", apperrors.ErrNoRows)
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperrors.NewModelError("outcome is not finite", nil).WithContext("row", i)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	xmean, xsd := d.columnMoments()
	ymean, ysd := stat.MeanStdDev(y, nil)
	priors := cfg.Priors.adjust(d.priorScales(xsd), ymean, ysd)

	post := newConditional(d, y, xmean, priors)

	logger.InfoContext(ctx, "Sampling posterior",
		slog.String("model", cfg.Name),
		slog.Int("observations", n),
		slog.Int("coefficients", post.k),
		slog.Int("chains", cfg.Chains),
		slog.Int("iterations", cfg.Iterations),
		slog.Int("warmup", cfg.Warmup))

	start := time.Now()
	results := make([]chainResult, cfg.Chains)
	sometimes := &rate.Sometimes{Interval: 2 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	for c := 0; c < cfg.Chains; c++ {
		g.Go(func() error {
			r, err := post.run(gctx, cfg, c, ysd, func(it int) {
				sometimes.Do(func() {
					logger.DebugContext(gctx, "Sampler progress",
						slog.String("model", cfg.Name),
						slog.Int("chain", c),
						slog.Int("iteration", it))
				})
			})
			if err != nil {
				return err
			}
			results[c] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, apperrors.ErrSingularSystem) {
			return nil, apperrors.NewModelError("posterior precision could not be factorized", err).
				WithContext("model", cfg.Name)
		}
		return nil, apperrors.NewModelError("sampling failed", err).WithContext("model", cfg.Name)
	}

	fit := newFit(cfg, d.Names, n, priors, results)

	logger.InfoContext(ctx, "Sampling complete",
		slog.String("model", cfg.Name),
		slog.Int("draws", fit.NumDraws()),
		slog.Duration("elapsed", time.Since(start)))

	for _, s := range fit.Summary() {
		if !s.finite() {
			return nil, apperrors.NewModelError("posterior summary is not finite", nil).
				WithContext("model", cfg.Name).
				WithContext("coefficient", s.Name)
		}
	}
	for _, s := range fit.Flagged() {
		logger.WarnContext(ctx, "Sampler diagnostics flag a coefficient",
			slog.String("model", cfg.Name),
			slog.String("coefficient", s.Name),
			slog.Float64("rhat", s.Rhat),
			slog.Float64("ess", s.ESS))
	}

	return fit, nil
}

// conditional holds the sufficient statistics of the centered design
type conditional struct {
	n, k    int
	xmean   []float64
	ztz     *mat.SymDense
	zty     []float64
	yty     float64
	prec    []float64 // prior precision per coefficient
	precMu  []float64 // prior precision times prior mean
	auxRate float64
}

func newConditional(d *Design, y, xmean []float64, priors AdjustedPriors) *conditional {
	n, p := d.Rows(), d.Cols()
	k := p + 1

	z := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		z.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			z.Set(i, j+1, d.X.At(i, j)-xmean[j])
		}
	}

	var ztz mat.SymDense
	ztz.SymOuterK(1, z.T())

	yv := mat.NewVecDense(n, y)
	var zty mat.VecDense
	zty.MulVec(z.T(), yv)

	c := &conditional{
		n:       n,
		k:       k,
		xmean:   xmean,
		ztz:     &ztz,
		zty:     mat.Col(nil, 0, &zty),
		yty:     mat.Dot(yv, yv),
		prec:    make([]float64, k),
		precMu:  make([]float64, k),
		auxRate: priors.AuxRate,
	}
	for j := 0; j < k; j++ {
		c.prec[j] = 1 / (priors.Scale[j] * priors.Scale[j])
		c.precMu[j] = priors.Mean[j] * c.prec[j]
	}
	return c
}

// ssr returns the residual sum of squares at theta
func (c *conditional) ssr(theta []float64) float64 {
	v := c.yty
	for i := 0; i < c.k; i++ {
		v -= 2 * theta[i] * c.zty[i]
		for j := 0; j < c.k; j++ {
			v += theta[i] * c.ztz.At(i, j) * theta[j]
		}
	}
	return math.Max(v, 1e-12)
}

type chainResult struct {
	coef     [][]float64
	sigma    []float64
	accepted int
}

func (c *conditional) run(ctx context.Context, cfg Config, chain int, ysd float64, tick func(int)) (chainResult, error) {
	rng := NewRand(cfg.Seed, uint64(chain)+1)
	draws := cfg.Draws()
	res := chainResult{
		coef:  make([][]float64, 0, draws),
		sigma: make([]float64, 0, draws),
	}

	sigma := ysd
	if !(sigma > 0) {
		sigma = 1
	}
	theta := make([]float64, c.k)
	z := make([]float64, c.k)
	b := mat.NewVecDense(c.k, nil)
	prec := mat.NewSymDense(c.k, nil)
	var mu mat.VecDense
	var chol mat.Cholesky

	for it := 0; it < cfg.Iterations; it++ {
		if it%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			tick(it)
		}

		// coefficients given sigma
		inv := 1 / (sigma * sigma)
		for i := 0; i < c.k; i++ {
			for j := i; j < c.k; j++ {
				v := c.ztz.At(i, j) * inv
				if i == j {
					v += c.prec[i]
				}
				prec.SetSym(i, j, v)
			}
			b.SetVec(i, c.zty[i]*inv+c.precMu[i])
		}
		if ok := chol.Factorize(prec); !ok {
			return res, apperrors.ErrSingularSystem
		}
		if err := chol.SolveVecTo(&mu, b); err != nil {
			return res, fmt.Errorf("%w: %v", apperrors.ErrSingularSystem, err)
		}
		for i := range z {
			z[i] = rng.NormFloat64()
		}
		// theta = mu + U^-1 z has covariance (U'U)^-1
		u := chol.RawU()
		for i := c.k - 1; i >= 0; i-- {
			s := z[i]
			for j := i + 1; j < c.k; j++ {
				s -= u.At(i, j) * (theta[j] - mu.AtVec(j))
			}
			theta[i] = mu.AtVec(i) + s/u.At(i, i)
		}

		// sigma given coefficients
		ssr := c.ssr(theta)
		proposal := math.Sqrt(invGammaRand(rng, float64(c.n-1)/2, ssr/2))
		if math.Log(rng.Float64()) < -c.auxRate*(proposal-sigma) {
			sigma = proposal
			if it >= cfg.Warmup {
				res.accepted++
			}
		}

		if it >= cfg.Warmup {
			res.coef = append(res.coef, c.uncenter(theta))
			res.sigma = append(res.sigma, sigma)
		}
		if cfg.Progress != nil {
			_ = cfg.Progress.Add(1)
		}
	}
	return res, nil
}

// uncenter converts the intercept of the centered design back to the scale
// of the original predictors
func (c *conditional) uncenter(theta []float64) []float64 {
	out := make([]float64, c.k)
	copy(out, theta)
	for j, m := range c.xmean {
		out[0] -= m * theta[j+1]
	}
	return out
}
