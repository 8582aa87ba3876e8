// Package errors classifies engine failures. Callers branch on the type,
// never on the message.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an AppError.
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeBadRequest ErrorType = "BAD_REQUEST"
	// ErrorTypeCascadeAborted marks a cascade step that matched no rows.
	// Everything the call wrote has been rolled back.
	ErrorTypeCascadeAborted ErrorType = "CASCADE_ABORTED"
	ErrorTypeInternal       ErrorType = "INTERNAL"
)

// AppError is an error with a type and an optional cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error never includes the cause of an internal error, so storage details
// stay out of anything shown to callers. Use Cause to log it.
func (e *AppError) Error() string {
	if e.Err == nil || e.Type == ErrorTypeInternal {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// Wrap attaches a type to err. err may be nil.
func Wrap(t ErrorType, message string, err error) error {
	return &AppError{Type: t, Message: message, Err: err}
}

func NotFound(message string) error       { return Wrap(ErrorTypeNotFound, message, nil) }
func BadRequest(message string) error     { return Wrap(ErrorTypeBadRequest, message, nil) }
func CascadeAborted(message string) error { return Wrap(ErrorTypeCascadeAborted, message, nil) }

// Internal wraps an infrastructure failure. The cause stays reachable via
// errors.Is and errors.As; the message should not repeat storage details.
func Internal(message string, err error) error {
	return Wrap(ErrorTypeInternal, message, err)
}

// TypeOf returns the type of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Cause returns the error wrapped by the first AppError in err's chain, or
// err itself when there is none.
func Cause(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		return appErr.Err
	}
	return err
}

func IsNotFound(err error) bool       { return TypeOf(err) == ErrorTypeNotFound }
func IsBadRequest(err error) bool     { return TypeOf(err) == ErrorTypeBadRequest }
func IsCascadeAborted(err error) bool { return TypeOf(err) == ErrorTypeCascadeAborted }
func IsInternal(err error) bool       { return TypeOf(err) == ErrorTypeInternal }
