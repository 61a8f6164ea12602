// Package pipeline runs the sales analysis end to end: load, normalize,
// merge, filter, build features, describe, impute, fit both models, check
// them and write the reports. Each stage runs in its own span and records
// its duration and row counts as metrics.
package pipeline
