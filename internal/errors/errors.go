package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline failures
type ErrorType string

const (
	// ErrTypeSchemaDrift marks a report whose structure no longer matches
	// the expected layout: unrecognized overheaders, missing signal
	// columns, unparseable date ranges. Drift is always a hard failure;
	// values are never guessed from a drifted sheet.
	ErrTypeSchemaDrift ErrorType = "SCHEMA_DRIFT"
	// ErrTypeInputIdentity marks a report file whose identity cannot be
	// established, e.g. no publish date in the filename.
	ErrTypeInputIdentity ErrorType = "INPUT_IDENTITY"
	// ErrTypeRetrieval marks listing or download failures.
	ErrTypeRetrieval  ErrorType = "RETRIEVAL"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
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
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
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

// NewSchemaDriftError creates a schema drift error. The message should name
// the offending sheet, header, or category so the report can be fixed by a
// human reading the log.
func NewSchemaDriftError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSchemaDrift, message, cause)
}

// NewSchemaDriftErrorf creates a schema drift error with a formatted message
func NewSchemaDriftErrorf(format string, args ...interface{}) *AppError {
	return NewAppError(ErrTypeSchemaDrift, fmt.Sprintf(format, args...), nil)
}

// NewInputIdentityError creates an input identity error
func NewInputIdentityError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInputIdentity, message, cause)
}

// NewRetrievalError creates a retrieval error
func NewRetrievalError(message string, cause error) *AppError {
	return NewAppError(ErrTypeRetrieval, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// TypeOf returns the ErrorType of err when it is (or wraps) an AppError,
// and an empty string otherwise.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsSchemaDrift reports whether err is (or wraps) a schema drift error
func IsSchemaDrift(err error) bool {
	return TypeOf(err) == ErrTypeSchemaDrift
}

// IsInputIdentity reports whether err is (or wraps) an input identity error
func IsInputIdentity(err error) bool {
	return TypeOf(err) == ErrTypeInputIdentity
}

// IsRetrieval reports whether err is (or wraps) a retrieval error
func IsRetrieval(err error) bool {
	return TypeOf(err) == ErrTypeRetrieval
}
