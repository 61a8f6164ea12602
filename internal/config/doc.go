// Package config provides configuration loading for the sales analysis.
//
// Configuration is assembled from the following sources, later ones winning:
//
//  1. Built-in defaults (Default)
//  2. A YAML file (nycsales.yaml, configs/nycsales.yaml or --config)
//  3. Environment variables, optionally from a .env file
//  4. Command-line flags applied by cmd/nycsales
//
// Environment variables use the NYCSALES_ prefix and the section name:
//
//	NYCSALES_SAMPLER_SEED=42
//	NYCSALES_SAMPLER_CHAINS=4
//	NYCSALES_ANALYSIS_REFERENCE_YEAR=2018
//	NYCSALES_ANALYSIS_EXCLUDED_CLASS_CODES=C1,C2,RR
//	NYCSALES_PRIORS_COEFFICIENT_SCALE=2.5
//	NYCSALES_PATHS_DATA_DIR=/srv/sales
//
// Validation uses go-playground/validator tags on the structs; Load returns a
// CONFIG AppError describing every failing field.
package config
