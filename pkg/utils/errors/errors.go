package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of an error
type ErrorType uint

const (
	// ErrorTypeUnknown represents an unknown error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidInput represents a malformed or out-of-domain parameter
	ErrorTypeInvalidInput
	// ErrorTypeNotSupported represents a structurally valid request the engine set does not implement
	ErrorTypeNotSupported
	// ErrorTypeNotConverged represents an iterative algorithm exhausting its budget on valid inputs
	ErrorTypeNotConverged
	// ErrorTypeNotFound represents a not found error
	ErrorTypeNotFound
	// ErrorTypeInternal represents an internal error
	ErrorTypeInternal
	// ErrorTypeIO represents a data retrieval or cache failure
	ErrorTypeIO
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new error with the given message
func New(message string) error {
	return &AppError{
		Type:    ErrorTypeUnknown,
		Message: message,
	}
}

// Newf creates a new error with the given format and arguments
func Newf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeUnknown,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a message, preserving the wrapped error's type
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: message,
			Err:     err,
		}
	}
	return &AppError{
		Type:    ErrorTypeUnknown,
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown for foreign errors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// InvalidInput creates a new InvalidInput error
func InvalidInput(message string) error {
	return &AppError{
		Type:    ErrorTypeInvalidInput,
		Message: message,
	}
}

// InvalidInputf creates a new formatted InvalidInput error
func InvalidInputf(format string, args ...interface{}) error {
	return InvalidInput(fmt.Sprintf(format, args...))
}

// NotSupported creates a new NotSupported error
func NotSupported(message string) error {
	return &AppError{
		Type:    ErrorTypeNotSupported,
		Message: message,
	}
}

// NotSupportedf creates a new formatted NotSupported error
func NotSupportedf(format string, args ...interface{}) error {
	return NotSupported(fmt.Sprintf(format, args...))
}

// NotConverged creates a new NotConverged error
func NotConverged(message string) error {
	return &AppError{
		Type:    ErrorTypeNotConverged,
		Message: message,
	}
}

// NotConvergedf creates a new formatted NotConverged error
func NotConvergedf(format string, args ...interface{}) error {
	return NotConverged(fmt.Sprintf(format, args...))
}

// NotFound creates a new NotFound error
func NotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// Internal creates a new Internal error
func Internal(message string) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
	}
}

// IO creates a new IO error
func IO(message string) error {
	return &AppError{
		Type:    ErrorTypeIO,
		Message: message,
	}
}

// IsInvalidInput reports whether err is an input-validation failure
func IsInvalidInput(err error) bool {
	return TypeOf(err) == ErrorTypeInvalidInput
}

// IsNotSupported reports whether err is an unsupported-combination failure
func IsNotSupported(err error) bool {
	return TypeOf(err) == ErrorTypeNotSupported
}

// IsNotConverged reports whether err is a numerical non-convergence failure
func IsNotConverged(err error) bool {
	return TypeOf(err) == ErrorTypeNotConverged
}

// IsNotFound reports whether err is a not-found failure
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}
