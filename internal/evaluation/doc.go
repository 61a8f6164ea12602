// Package evaluation checks fitted sales models against the data and asks
// what-if questions of them: a posterior predictive density check and a
// borough counterfactual for high-priced sales.
package evaluation
