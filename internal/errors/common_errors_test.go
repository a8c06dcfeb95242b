package errors

import (
	"errors"
	"fmt"
	"os"
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
		{name: "input error type", errType: ErrTypeInput, expected: "INPUT"},
		{name: "schema error type", errType: ErrTypeSchema, expected: "SCHEMA"},
		{name: "output error type", errType: ErrTypeOutput, expected: "OUTPUT"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
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
			appError:    NewSchemaError("budget", "column not found"),
			wantMessage: "[SCHEMA] column not found",
		},
		{
			name:        "error with cause",
			appError:    NewInputError("movies.csv", "cannot open input file", os.ErrNotExist),
			wantMessage: "[INPUT] cannot open input file: file does not exist",
		},
		{
			name:        "error with stage",
			appError:    NewOutputError("out.csv", "write failed", fmt.Errorf("disk full")).WithStage("export"),
			wantMessage: "[OUTPUT] export: write failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Context(t *testing.T) {
	err := NewSchemaError("revenue", "column not found").WithStage("transform")

	assert.Equal(t, "revenue", err.Context[ContextColumn])
	assert.Equal(t, "transform", err.Context[ContextStage])

	err = NewInputError("data/tmdb-movies.csv", "empty file", nil)
	assert.Equal(t, "data/tmdb-movies.csv", err.Context[ContextPath])
}

func TestAppError_WithContextOnNilMap(t *testing.T) {
	err := &AppError{Type: ErrTypeConfig, Message: "bad"}
	err.WithContext("key", "value")
	require.NotNil(t, err.Context)
	assert.Equal(t, "value", err.Context["key"])
}

func TestAppError_Unwrap(t *testing.T) {
	cause := os.ErrPermission
	err := NewOutputError("out.csv", "cannot create output file", cause)

	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Equal(t, cause, err.Unwrap())
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("run failed: %w", NewSchemaError("genres", "column not found"))

	assert.True(t, IsType(wrapped, ErrTypeSchema))
	assert.False(t, IsType(wrapped, ErrTypeInput))
	assert.False(t, IsType(errors.New("plain"), ErrTypeSchema))
	assert.False(t, IsType(nil, ErrTypeSchema))
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewConfigError("invalid money mode", nil))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrTypeConfig, appErr.Type)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}
