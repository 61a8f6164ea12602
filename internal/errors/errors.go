package errors

import (
	stderrors "errors"
)

// Sentinel errors shared by the pipeline stages.
var (
	ErrNoRows         = stderrors.New("no rows")
	ErrColumnMismatch = stderrors.New("column sets differ between tables")
	ErrSingularSystem = stderrors.New("posterior precision is not positive definite")
	ErrTooFewDraws    = stderrors.New("not enough posterior draws")
	ErrUnknownBorough = stderrors.New("unknown borough")
	ErrMissingColumn  = stderrors.New("missing column")
)

// IsType reports whether err wraps an *AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// TypeOf returns the type of the first *AppError in err's chain, or "" if none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
