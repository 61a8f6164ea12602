package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{"parsing error type", ErrTypeParsing, "PARSING"},
		{"storage error type", ErrTypeStorage, "STORAGE"},
		{"validation error type", ErrTypeValidation, "VALIDATION"},
		{"not found error type", ErrTypeNotFound, "NOT_FOUND"},
		{"config error type", ErrTypeConfig, "CONFIG"},
		{"model error type", ErrTypeModel, "MODEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewAppValidationError("borough file is empty"),
			wantMessage: "[VALIDATION] borough file is empty",
		},
		{
			name:        "error with cause",
			appError:    NewParsingError("read header", fmt.Errorf("unexpected EOF")),
			wantMessage: "[PARSING] read header: unexpected EOF",
		},
		{
			name:        "not found",
			appError:    NewNotFoundError("rollingsales_queens.csv"),
			wantMessage: "[NOT_FOUND] rollingsales_queens.csv not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	wrapped := NewModelError("fit imputation model", ErrSingularSystem)
	outer := fmt.Errorf("impute: %w", wrapped)

	assert.True(t, errors.Is(outer, ErrSingularSystem))
	assert.True(t, IsType(outer, ErrTypeModel))
	assert.False(t, IsType(outer, ErrTypeConfig))
	assert.Equal(t, ErrTypeModel, TypeOf(outer))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))

	var appErr *AppError
	require.True(t, errors.As(outer, &appErr))
	assert.Equal(t, "fit imputation model", appErr.Message)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewStorageError("write report", nil).
		WithContext("path", "reports/summary.txt").
		WithContext("rows", 42)

	assert.Equal(t, "reports/summary.txt", err.Context["path"])
	assert.Equal(t, 42, err.Context["rows"])

	bare := &AppError{Type: ErrTypeConfig, Message: "bad"}
	bare.WithContext("k", "v")
	assert.Equal(t, "v", bare.Context["k"])
}
