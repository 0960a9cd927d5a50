// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"time"
)

// ErrAccountNotFound is returned by repositories when no account matches.
var ErrAccountNotFound = errors.New("identity: account not found")

// ErrTokenNotFound is returned when a one-time token is absent or expired.
var ErrTokenNotFound = errors.New("identity: token not found")

// ErrEmailTaken is returned by Create when the address is already registered.
var ErrEmailTaken = errors.New("identity: email already registered")

// # Account Data Access

// AccountRepository defines the data access contract for accounts.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *Account: Hydrated entity
		  - error: ErrAccountNotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		FindByEmail returns the account with the given normalized email.

		Returns:
		  - *Account: Hydrated entity
		  - error: ErrAccountNotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*Account, error)

	/*
		Create persists a brand-new account.

		Returns:
		  - error: ErrEmailTaken or persistence failures
	*/
	Create(context context.Context, account *Account) error

	// UpdatePassword replaces only the password hash.
	UpdatePassword(context context.Context, accountID, newHash string) error

	// MarkVerified flags the account's email as confirmed.
	MarkVerified(context context.Context, accountID string) error
}

// # Volatile Data Access

// TokenRepository stores one-time action tokens (reset, verification).
// Tokens are stored hashed; callers pass the digest.
type TokenRepository interface {

	/*
		Set stores a token digest associated with an account for a limited duration.

		Parameters:
		  - context: context.Context
		  - tokenHash: string
		  - accountID: string
		  - ttl: time.Duration
	*/
	Set(context context.Context, tokenHash string, accountID string, ttl time.Duration) error

	// Get returns the account ID of a live token or ErrTokenNotFound.
	Get(context context.Context, tokenHash string) (string, error)

	// Delete removes a token after use.
	Delete(context context.Context, tokenHash string) error
}
