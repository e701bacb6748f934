// Package errors provides standardized domain errors with codes for the ReWear API.
//
// Usage:
//
//	// In services - return typed errors
//	if item.OwnerID == memberID {
//	    return errors.SelfSwap("cannot swap with your own item")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrInsufficientBalance) {
//	    // 402 is produced automatically by the huma error bridge
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeNotSwappable:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeAccountBanned      Code = "ACCOUNT_BANNED"

	// Exchange engine codes. All conflict-class codes are recoverable:
	// the caller should refresh its view and retry or choose differently.
	CodeSelfSwap            Code = "SELF_SWAP"
	CodeNotSwappable        Code = "NOT_SWAPPABLE"
	CodeDuplicateActiveSwap Code = "DUPLICATE_ACTIVE_SWAP"
	CodeAlreadyResolved     Code = "ALREADY_RESOLVED"
	CodeAlreadyReserved     Code = "ALREADY_RESERVED"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeEngineUnavailable   Code = "ENGINE_UNAVAILABLE"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict, CodeSelfSwap, CodeNotSwappable,
		CodeDuplicateActiveSwap, CodeAlreadyResolved, CodeAlreadyReserved:
		return http.StatusConflict
	case CodeUnauthorized, CodeInvalidCredentials, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeForbidden, CodeAccountBanned:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeInsufficientBalance:
		return http.StatusPaymentRequired
	case CodeEngineUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists       = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized        = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden           = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation          = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict            = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal            = &Error{Code: CodeInternal, Message: "internal error"}
	ErrInvalidCredentials  = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrTokenExpired        = &Error{Code: CodeTokenExpired, Message: "token expired"}
	ErrAccountBanned       = &Error{Code: CodeAccountBanned, Message: "this account is banned"}
	ErrSelfSwap            = &Error{Code: CodeSelfSwap, Message: "cannot swap with your own item"}
	ErrNotSwappable        = &Error{Code: CodeNotSwappable, Message: "item is not available for swapping"}
	ErrDuplicateActiveSwap = &Error{Code: CodeDuplicateActiveSwap, Message: "item is already part of an active swap"}
	ErrAlreadyResolved     = &Error{Code: CodeAlreadyResolved, Message: "swap has already been resolved"}
	ErrAlreadyReserved     = &Error{Code: CodeAlreadyReserved, Message: "item is already reserved"}
	ErrInsufficientBalance = &Error{Code: CodeInsufficientBalance, Message: "insufficient point balance"}
	ErrEngineUnavailable   = &Error{Code: CodeEngineUnavailable, Message: "exchange engine temporarily unavailable"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Forbiddenf creates a forbidden error with formatted message.
func Forbiddenf(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Conflictf creates a conflict error with formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// SelfSwap creates a self-swap conflict error.
func SelfSwap(msg string) *Error {
	return &Error{Code: CodeSelfSwap, Message: msg}
}

// NotSwappable creates a not-swappable conflict error.
func NotSwappable(msg string) *Error {
	return &Error{Code: CodeNotSwappable, Message: msg}
}

// NotSwappablef creates a not-swappable conflict error with formatted message.
func NotSwappablef(format string, args ...any) *Error {
	return &Error{Code: CodeNotSwappable, Message: fmt.Sprintf(format, args...)}
}

// DuplicateActiveSwap creates a duplicate-active-swap conflict error.
func DuplicateActiveSwap(msg string) *Error {
	return &Error{Code: CodeDuplicateActiveSwap, Message: msg}
}

// AlreadyResolved creates an already-resolved conflict error.
func AlreadyResolved(msg string) *Error {
	return &Error{Code: CodeAlreadyResolved, Message: msg}
}

// InsufficientBalance creates an insufficient balance error.
func InsufficientBalance(msg string) *Error {
	return &Error{Code: CodeInsufficientBalance, Message: msg}
}

// EngineUnavailable creates a retryable engine-unavailable error.
func EngineUnavailable(msg string) *Error {
	return &Error{Code: CodeEngineUnavailable, Message: msg}
}

// InvalidCredentials creates an invalid credentials error.
func InvalidCredentials(msg string) *Error {
	return &Error{Code: CodeInvalidCredentials, Message: msg}
}

// TokenExpired creates a token expired error.
func TokenExpired(msg string) *Error {
	return &Error{Code: CodeTokenExpired, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
