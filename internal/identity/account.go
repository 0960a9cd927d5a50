// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"strings"
	"time"
)

// # Token and Credential Constraints

const (
	// MinPasswordLength is the shortest password Register accepts.
	MinPasswordLength = 6

	// ResetTokenTTL is how long a password reset link stays valid.
	ResetTokenTTL = 1 * time.Hour

	// VerificationTokenTTL is how long an email verification link stays valid.
	// Long-lived as users might not check email immediately.
	VerificationTokenTTL = 24 * time.Hour

	// ActionTokenLength is the byte length of reset and verification tokens.
	ActionTokenLength = 32

	// FailedSignInBurst is how many wrong passwords an address may submit before throttling.
	FailedSignInBurst = 5

	// FailedSignInRefill is how often one failed attempt is forgiven.
	FailedSignInRefill = 1 * time.Minute
)

// Account is a registered email/password identity.
type Account struct {
	ID            string
	Email         string
	PasswordHash  string
	DisplayName   string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session returns the session value published when this account signs in.
func (account *Account) Session() *Session {
	return &Session{
		ID:            account.ID,
		IsAnonymous:   false,
		EmailVerified: account.EmailVerified,
		Email:         account.Email,
		DisplayName:   account.DisplayName,
	}
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
