// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity is the identity provider behind every workspace.

It defines the Session value observed by the rest of the system, the Provider
contract the session monitor and auth flows consume, and the shared backend
([Service]) that owns accounts, password hashes and one-time tokens.

# Architecture

  - Service: Shared by all workspaces. Registration, credential checks,
    reset and verification tokens, outgoing mail.
  - Client: One per workspace. Holds the current session and delivers
    session-change events to subscribers in FIFO order.
  - Repositories: Postgres accounts, Redis tokens, memory variants for tests.
*/
package identity

import (
	"context"
	"errors"
)

// Session is the live authentication identity of one workspace.
//
// A Session is immutable once published to listeners; a changed identity is a
// new Session value.
type Session struct {
	ID            string `json:"id"`
	IsAnonymous   bool   `json:"is_anonymous"`
	EmailVerified bool   `json:"email_verified"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
}

// Listener receives session transitions. A nil session means signed out.
type Listener func(session *Session)

// Provider is the identity provider contract consumed by the core.
type Provider interface {
	// Authenticate checks credentials and makes the account the current session.
	Authenticate(ctx context.Context, email, password string) (*Session, error)

	// Register creates an unverified account and returns its session.
	// The new session is not made current.
	Register(ctx context.Context, email, password string) (*Session, error)

	// TerminateSession signs the workspace out.
	TerminateSession(ctx context.Context) error

	// Subscribe registers a listener and returns the function that removes it.
	// The listener first receives the current session.
	Subscribe(listener Listener) (unsubscribe func())

	// BeginAnonymousSession starts a guest session and makes it current.
	BeginAnonymousSession(ctx context.Context) (*Session, error)

	// RequestPasswordReset mails a reset link to the account of email.
	RequestPasswordReset(ctx context.Context, email string) error

	// RequestEmailVerification mails a verification link for session's account.
	RequestEmailVerification(ctx context.Context, session *Session) error
}

// # Provider Error Codes

const (
	CodeUserNotFound         = "user-not-found"
	CodeWrongPassword        = "wrong-password"
	CodeInvalidCredential    = "invalid-credential"
	CodeInvalidEmail         = "invalid-email"
	CodeUserDisabled         = "user-disabled"
	CodeTooManyRequests      = "too-many-requests"
	CodeNetworkRequestFailed = "network-request-failed"
	CodeOperationNotAllowed  = "operation-not-allowed"
	CodeEmailAlreadyInUse    = "email-already-in-use"
	CodeWeakPassword         = "weak-password"
	CodeInvalidActionCode    = "invalid-action-code"
)

// ProviderError is a failure reported by the identity provider.
type ProviderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	return "identity: " + e.Message + " (" + e.Code + ")"
}

func (e *ProviderError) Unwrap() error { return e.Cause }

func newProviderError(code, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

// unavailable wraps an infrastructure failure as network-request-failed.
func unavailable(cause error) *ProviderError {
	return &ProviderError{Code: CodeNetworkRequestFailed, Message: cause.Error(), Cause: cause}
}

// AsProviderError extracts the [*ProviderError] from err's chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var providerError *ProviderError
	if errors.As(err, &providerError) {
		return providerError, true
	}
	return nil, false
}

// HasCode reports whether err is a provider error with the given code.
func HasCode(err error, code string) bool {
	providerError, ok := AsProviderError(err)
	return ok && providerError.Code == code
}
