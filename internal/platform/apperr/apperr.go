// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Gatekeeper.

It provides a rich error type that bridges the gap between collaborator failures
(identity provider, document store, local cache) and the notifications and HTTP
responses shown to the user.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: VerificationRequired, Forbidden, NotFound, InvalidInput (VALIDATION_ERROR),
    ProviderError, StoreError and NetworkFailure.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves a core component should be an [AppError] so presentation
layers can render it without inspecting collaborator-specific types.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

const (
	CodeVerificationRequired = "VERIFICATION_REQUIRED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeValidation           = "VALIDATION_ERROR"
	CodeProvider             = "PROVIDER_ERROR"
	CodeStore                = "STORE_ERROR"
	CodeNetwork              = "NETWORK_FAILURE"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternal             = "INTERNAL_ERROR"
)

// VerificationMessage is the fixed notice shown whenever the verification gate rejects a session.
const VerificationMessage = "Your email address has not been verified yet. Please verify it before signing in."

// AppError is the canonical error type for Gatekeeper.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "FORBIDDEN").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// ProviderCode is the identity provider code for PROVIDER_ERROR values.
	ProviderCode string `json:"provider_code,omitempty"`
	// Partial marks a degraded success: the local mirror was written but the remote was not.
	Partial bool `json:"partial,omitempty"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// VerificationRequired creates the fixed error raised by the email verification gate.
func VerificationRequired() *AppError {
	return &AppError{
		Code:       CodeVerificationRequired,
		Message:    VerificationMessage,
		HTTPStatus: http.StatusForbidden,
	}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Profile") // Returns "Profile not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
// It is the InvalidInput kind of the taxonomy.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// Provider creates a 422 [AppError] carrying a friendly message for an identity provider code.
func Provider(code, msg string, cause error) *AppError {
	return &AppError{
		Code:         CodeProvider,
		Message:      msg,
		ProviderCode: code,
		HTTPStatus:   http.StatusUnprocessableEntity,
		Cause:        cause,
	}
}

// # Server Errors (5xx)

// Store creates a 502 [AppError] for a document store or cache failure.
// The message is preserved verbatim because administrators need it to diagnose.
func Store(msg string, cause error) *AppError {
	return &AppError{
		Code:       CodeStore,
		Message:    msg,
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

// Network creates a 503 [AppError] for an unreachable collaborator.
func Network(msg string, cause error) *AppError {
	return &AppError{
		Code:       CodeNetwork,
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}

// IsNotFound reports whether err is a NOT_FOUND [AppError].
func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }

// IsForbidden reports whether err is a FORBIDDEN [AppError].
func IsForbidden(err error) bool { return HasCode(err, CodeForbidden) }

// IsPartial reports whether err describes a degraded success.
func IsPartial(err error) bool {
	ae := As(err)
	return ae != nil && ae.Partial
}
