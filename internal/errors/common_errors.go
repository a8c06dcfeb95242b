package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeInput  ErrorType = "INPUT"
	ErrTypeSchema ErrorType = "SCHEMA"
	ErrTypeOutput ErrorType = "OUTPUT"
	ErrTypeConfig ErrorType = "CONFIG"
)

// Context keys attached to pipeline errors
const (
	ContextStage  = "stage"
	ContextColumn = "column"
	ContextPath   = "path"
	ContextRow    = "row"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if stage, ok := e.Context[ContextStage]; ok {
		msg = fmt.Sprintf("%s: %s", stage, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithStage records the pipeline stage that raised the error
func (e *AppError) WithStage(stage string) *AppError {
	return e.WithContext(ContextStage, stage)
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper functions for common error types

// NewInputError creates an error for a missing, unreadable or malformed input file
func NewInputError(path, message string, cause error) *AppError {
	return NewAppError(ErrTypeInput, message, cause).WithContext(ContextPath, path)
}

// NewSchemaError creates an error for a column that is absent or holds a value of the wrong type
func NewSchemaError(column, message string) *AppError {
	return NewAppError(ErrTypeSchema, message, nil).WithContext(ContextColumn, column)
}

// NewOutputError creates an error for a failed write
func NewOutputError(path, message string, cause error) *AppError {
	return NewAppError(ErrTypeOutput, message, cause).WithContext(ContextPath, path)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err wraps an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// AsAppError extracts the AppError wrapped by err
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
