// Package shared holds code used by more than one package that belongs to no
// single stage of the pipeline.
//
// The testutil subpackage provides test helpers: a slog handler that records
// log output for assertions and writers for synthetic borough sales extracts.
package shared
