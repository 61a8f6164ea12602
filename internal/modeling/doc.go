// Package modeling encodes sales features as regression designs, imputes
// missing log prices and fits the additive and interaction price models.
//
// Manhattan is the reference borough. The interaction model lets the slope
// of log price on standardized land area differ by borough.
package modeling
