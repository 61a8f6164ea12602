// Package bayes fits Bayesian linear regressions with explicit Normal priors
// on the coefficients and an Exponential prior on the residual scale.
//
// Sample runs independent Gibbs chains in parallel, each on its own PCG
// stream derived from the seed and the chain index, so a fit is reproducible
// regardless of how chains are scheduled. The returned Fit exposes posterior
// summaries with split R-hat and effective sample size, and posterior
// predictive draws for new rows.
package bayes
