// Package apperrors defines the application error taxonomy. Every error the
// service intentionally surfaces to a client is one of these, carrying an HTTP
// status and a stable machine-readable code.
package apperrors

import "net/http"

// Error is a client-facing failure with a stable code.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an Error with an explicit status and code.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// BadRequest indicates the request shape is invalid for the operation,
// e.g. a transfer addressed to the caller's own wallet.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, "BAD_REQUEST", message)
}

// Unauthorized indicates missing or invalid credentials.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden indicates the caller is known but the action is not allowed.
// A custom code may override the default, e.g. USER_BLACKLISTED.
func Forbidden(message, code string) *Error {
	if code == "" {
		code = "FORBIDDEN"
	}
	return New(http.StatusForbidden, code, message)
}

// NotFound indicates a missing wallet, user or transaction.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, "RESOURCE_NOT_FOUND", message)
}

// Conflict indicates a uniqueness violation, e.g. a duplicate transaction
// reference or a second wallet for the same owner.
func Conflict(message string) *Error {
	return New(http.StatusConflict, "CONFLICT", message)
}

// UnprocessableEntity indicates a well-formed request that violates a
// business rule, e.g. insufficient wallet balance.
func UnprocessableEntity(message string) *Error {
	return New(http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", message)
}

// CodeInternal is the catch-all code returned for unexpected failures.
const CodeInternal = "INTERNAL_SERVER_ERROR"

// CodeFor maps an HTTP status to the default error code of the taxonomy.
func CodeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "RESOURCE_NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return CodeInternal
	}
}

// Internal wraps unexpected failures without exposing internals.
func Internal(message string) *Error {
	if message == "" {
		message = "An unexpected error occurred. Please try again later."
	}
	return New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message)
}
