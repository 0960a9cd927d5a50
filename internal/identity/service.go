// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/gatekeeper/internal/platform/sec"
	"github.com/taibuivan/gatekeeper/pkg/uuid"
)

// # Contracts & Types

// AccountGuard reports whether an account has been disabled by an administrator.
// The profile store implements it from the isDisabled flag of the profile document.
type AccountGuard interface {
	IsDisabled(ctx context.Context, accountID string) (bool, error)
}

// ServiceOptions configures a [Service].
type ServiceOptions struct {
	// PublicBaseURL prefixes the links sent by email.
	PublicBaseURL string
	// AllowAnonymous enables guest sessions.
	AllowAnonymous bool
	// EmailRatePerMinute bounds reset and verification emails per address.
	EmailRatePerMinute int
}

// Service is the identity backend shared by every workspace.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or sign-in logic must be reviewed by the security team.
type Service struct {
	accounts     AccountRepository
	resetTokens  TokenRepository
	verifyTokens TokenRepository
	mailer       Mailer
	guard        AccountGuard
	options      ServiceOptions
	logger       *slog.Logger

	emailLimits  *keyedLimiter
	signInLimits *keyedLimiter
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	accounts AccountRepository,
	resetTokens TokenRepository,
	verifyTokens TokenRepository,
	mailer Mailer,
	options ServiceOptions,
	logger *slog.Logger,
) *Service {
	perMinute := options.EmailRatePerMinute
	if perMinute <= 0 {
		perMinute = 1
	}

	return &Service{
		accounts:     accounts,
		resetTokens:  resetTokens,
		verifyTokens: verifyTokens,
		mailer:       mailer,
		options:      options,
		logger:       logger,
		emailLimits:  newKeyedLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		signInLimits: newKeyedLimiter(rate.Every(FailedSignInRefill), FailedSignInBurst),
	}
}

// SetAccountGuard installs the disabled-account check consulted at sign-in.
// It is set after construction because the guard (profile store) is built later.
func (service *Service) SetAccountGuard(guard AccountGuard) {
	service.guard = guard
}

// # Registration Flow

/*
Register validates, hashes, and persists a brand new account.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *Account: Created, unverified entity
  - error: *ProviderError (invalid-email, weak-password, email-already-in-use, network-request-failed)
*/
func (service *Service) Register(context context.Context, email, password string) (*Account, error) {
	normalized, err := checkEmail(email)
	if err != nil {
		return nil, err
	}

	if len([]rune(password)) < MinPasswordLength {
		return nil, newProviderError(CodeWeakPassword, fmt.Sprintf("Password should be at least %d characters", MinPasswordLength))
	}

	// Prevent storing plain-text passwords.
	hashedPassword, err := sec.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	account := &Account{
		ID:            uuid.New(),
		Email:         normalized,
		PasswordHash:  hashedPassword,
		EmailVerified: false,
	}

	if err := service.accounts.Create(context, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, newProviderError(CodeEmailAlreadyInUse, "The email address is already in use by another account")
		}
		return nil, unavailable(err)
	}

	service.logger.InfoContext(context, "identity_account_registered", slog.String("account_id", account.ID))
	return account, nil
}

// # Authentication Flow

/*
Authenticate validates credentials.

Description: Repeated wrong passwords for one address are throttled, and
accounts flagged disabled by an administrator are refused.

Returns:
  - *Account: The authenticated account (possibly unverified)
  - error: *ProviderError (invalid-email, user-not-found, wrong-password,
    user-disabled, too-many-requests, network-request-failed)
*/
func (service *Service) Authenticate(context context.Context, email, password string) (*Account, error) {
	normalized, err := checkEmail(email)
	if err != nil {
		return nil, err
	}

	if !service.signInLimits.available(normalized) {
		return nil, newProviderError(CodeTooManyRequests, "Access to this account has been temporarily disabled due to many failed login attempts")
	}

	account, err := service.accounts.FindByEmail(context, normalized)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, newProviderError(CodeUserNotFound, "There is no user record corresponding to this identifier")
		}
		return nil, unavailable(err)
	}

	// bcrypt compares in constant time.
	if !sec.CheckPasswordHash(password, account.PasswordHash) {
		service.signInLimits.take(normalized)
		return nil, newProviderError(CodeWrongPassword, "The password is invalid")
	}

	if service.guard != nil {
		disabled, err := service.guard.IsDisabled(context, account.ID)
		if err != nil {
			// A profile store outage must not lock every user out.
			service.logger.WarnContext(context, "identity_disabled_check_failed",
				slog.String("account_id", account.ID),
				slog.Any("error", err),
			)
		} else if disabled {
			return nil, newProviderError(CodeUserDisabled, "The user account has been disabled by an administrator")
		}
	}

	return account, nil
}

// NewAnonymousSession starts a guest identity. Anonymous sessions are not persisted.
func (service *Service) NewAnonymousSession() (*Session, error) {
	if !service.options.AllowAnonymous {
		return nil, newProviderError(CodeOperationNotAllowed, "Anonymous sign-in is disabled")
	}
	return &Session{ID: uuid.New(), IsAnonymous: true, EmailVerified: false}, nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Generates a one-time token, stores its digest and mails the link.

Returns:
  - error: *ProviderError (invalid-email, user-not-found, too-many-requests, network-request-failed)
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	normalized, err := checkEmail(email)
	if err != nil {
		return err
	}

	account, err := service.accounts.FindByEmail(context, normalized)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return newProviderError(CodeUserNotFound, "There is no user record corresponding to this identifier")
		}
		return unavailable(err)
	}

	if !service.emailLimits.take(normalized) {
		return newProviderError(CodeTooManyRequests, "We have blocked all requests from this device due to unusual activity")
	}

	link, err := service.issueToken(context, service.resetTokens, account.ID, ResetTokenTTL, "/reset-password")
	if err != nil {
		return err
	}

	if err := service.mailer.SendPasswordReset(context, account.Email, link); err != nil {
		return unavailable(err)
	}

	return nil
}

/*
ResetPassword completes the forgot-password flow.

Returns:
  - error: *ProviderError (invalid-action-code, weak-password, network-request-failed)
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	tokenHash := sec.HashToken(token)

	accountID, err := service.resetTokens.Get(context, tokenHash)
	if err != nil {
		return actionTokenError(err)
	}

	if len([]rune(newPassword)) < MinPasswordLength {
		return newProviderError(CodeWeakPassword, fmt.Sprintf("Password should be at least %d characters", MinPasswordLength))
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("identity_service_reset_password_hash_failed: %w", err)
	}

	if err := service.accounts.UpdatePassword(context, accountID, hashedPassword); err != nil {
		return unavailable(err)
	}

	// Single use.
	_ = service.resetTokens.Delete(context, tokenHash)

	return nil
}

// # Email Verification

/*
RequestEmailVerification mails a verification link to the account.

Returns:
  - error: *ProviderError (user-not-found, too-many-requests, network-request-failed)
*/
func (service *Service) RequestEmailVerification(context context.Context, accountID string) error {
	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return newProviderError(CodeUserNotFound, "There is no user record corresponding to this identifier")
		}
		return unavailable(err)
	}

	if !service.emailLimits.take(account.Email) {
		return newProviderError(CodeTooManyRequests, "We have blocked all requests from this device due to unusual activity")
	}

	link, err := service.issueToken(context, service.verifyTokens, account.ID, VerificationTokenTTL, "/verify-email")
	if err != nil {
		return err
	}

	if err := service.mailer.SendVerification(context, account.Email, link); err != nil {
		return unavailable(err)
	}

	return nil
}

/*
VerifyEmail confirms an email address using a one-time token.

Returns:
  - error: *ProviderError (invalid-action-code, network-request-failed)
*/
func (service *Service) VerifyEmail(context context.Context, token string) error {
	tokenHash := sec.HashToken(token)

	accountID, err := service.verifyTokens.Get(context, tokenHash)
	if err != nil {
		return actionTokenError(err)
	}

	if err := service.accounts.MarkVerified(context, accountID); err != nil {
		return unavailable(err)
	}

	_ = service.verifyTokens.Delete(context, tokenHash)

	service.logger.InfoContext(context, "identity_email_verified", slog.String("account_id", accountID))
	return nil
}

// # Helpers

// issueToken stores a fresh token digest and returns the emailed link.
func (service *Service) issueToken(context context.Context, repository TokenRepository, accountID string, ttl time.Duration, path string) (string, error) {
	token, err := sec.GenerateSecureToken(ActionTokenLength)
	if err != nil {
		return "", fmt.Errorf("identity_service_generate_token_failed: %w", err)
	}

	if err := repository.Set(context, sec.HashToken(token), accountID, ttl); err != nil {
		return "", unavailable(err)
	}

	return strings.TrimRight(service.options.PublicBaseURL, "/") + "/api/v1/identity" + path + "?token=" + url.QueryEscape(token), nil
}

func actionTokenError(err error) error {
	if errors.Is(err, ErrTokenNotFound) {
		return newProviderError(CodeInvalidActionCode, "The action code is invalid or has expired")
	}
	return unavailable(err)
}

// checkEmail normalizes an address and rejects malformed ones.
func checkEmail(email string) (string, error) {
	normalized := NormalizeEmail(email)
	address, err := mail.ParseAddress(normalized)
	if err != nil || address.Address != normalized {
		return "", newProviderError(CodeInvalidEmail, "The email address is badly formatted")
	}
	return normalized, nil
}

// keyedLimiter holds one token bucket per key (an email address).
// TODO: evict buckets that have been full for longer than their refill window.
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

func newKeyedLimiter(every rate.Limit, burst int) *keyedLimiter {
	return &keyedLimiter{limiters: make(map[string]*rate.Limiter), every: every, burst: burst}
}

func (limiter *keyedLimiter) get(key string) *rate.Limiter {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	bucket, ok := limiter.limiters[key]
	if !ok {
		bucket = rate.NewLimiter(limiter.every, limiter.burst)
		limiter.limiters[key] = bucket
	}
	return bucket
}

// take consumes one token and reports whether one was available.
func (limiter *keyedLimiter) take(key string) bool {
	return limiter.get(key).Allow()
}

// available reports whether a token could be taken without consuming it.
func (limiter *keyedLimiter) available(key string) bool {
	return limiter.get(key).Tokens() >= 1
}
