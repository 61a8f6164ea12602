// Package dataprocessing turns the five borough rolling sales extracts into
// the modeling population.
//
// # Stages
//
//  1. Loader: LoadBoroughs / LoadFile read .csv or .xlsx files into RawTables
//  2. Normalizer: Normalize coerces columns using ColumnSets
//  3. Merger/Filter: Merge concatenates and labels boroughs, FilterResidential
//     keeps whole-building residential sales
//  4. Feature Builder: BuildFeatures applies the area and year-built floors,
//     standardizes areas, centers units and derives age
//  5. EDA: Describe summarizes the feature table per borough
//
// # Usage
//
//	raw, err := dataprocessing.LoadBoroughs(ctx, paths, logger)
//	tables := make(map[domain.Borough]*dataprocessing.Table)
//	for b, r := range raw {
//	    tables[b], _ = dataprocessing.Normalize(r, dataprocessing.DefaultColumnSets())
//	}
//	merged, err := dataprocessing.Merge(tables)
//	residential, stats := dataprocessing.FilterResidential(merged, filterCfg)
//	features, fstats, err := dataprocessing.BuildFeatures(residential, featureCfg)
//
// # Missing values
//
// Malformed cells never fail a stage. Numeric and currency cells become NaN,
// dates become invalid, and every stage returns counts of what it dropped.
package dataprocessing
