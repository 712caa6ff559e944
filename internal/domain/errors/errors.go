// Package errors defines the application error taxonomy. Every failure
// that can cross the HTTP boundary is expressed as an AppError carrying
// an HTTP status and a stable business code, so handlers never have to
// guess at status codes and clients never see field-specific
// authentication diagnostics.
package errors

import (
	"net/http"

	"locker/internal/errors"
)

// AppError defines the interface for application-specific errors.
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface.
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error.
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message.
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code.
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code.
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message.
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information.
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails returns a copy of the error with detailed information attached.
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types.
//
// The two grant rejections are deliberately generic: the issuer never
// reveals which half of a credential pair failed. The full detail is
// logged server-side only.
var (
	// ErrInvalidClient covers every client-authentication failure at
	// issuance time: unknown client_id, wrong client_secret, or a grant
	// type the client is not registered for.
	ErrInvalidClient = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CLIENT",
		"invalid client credentials",
		"",
	)

	// ErrInvalidGrant covers every resource-owner failure: unknown
	// username, wrong password, or a missing/expired refresh token.
	ErrInvalidGrant = NewBaseError(
		http.StatusBadRequest,
		"INVALID_GRANT",
		"invalid grant",
		"",
	)

	// ErrTokenExpired is the server-side distinction that tells a client
	// a refresh attempt is worthwhile. It still maps to 401.
	ErrTokenExpired = NewBaseError(
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
		"access token has expired",
		"",
	)

	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"authentication required",
		"",
	)

	// ErrIntegrity means an envelope failed authenticated decryption:
	// wrong key, corrupted bytes, or tampering. Never retried.
	ErrIntegrity = NewBaseError(
		http.StatusInternalServerError,
		"INTEGRITY_FAILURE",
		"stored file is unreadable",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"resource not found",
		"",
	)

	// ErrPathOutsideRoot is the traversal guard rejection: the supplied
	// logical path would resolve outside the owner's subtree.
	ErrPathOutsideRoot = NewBaseError(
		http.StatusBadRequest,
		"PATH_OUTSIDE_ROOT",
		"invalid path",
		"",
	)

	ErrBlobTooLarge = NewBaseError(
		http.StatusRequestEntityTooLarge,
		"BLOB_TOO_LARGE",
		"file exceeds the maximum allowed size",
		"",
	)

	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"this username is already registered",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"input validation failed",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface.
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error.
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface.
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code.
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code.
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message.
func (e *DatabaseExecuteError) Message() string {
	return "database execution failed"
}

// Details returns detailed error information.
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
