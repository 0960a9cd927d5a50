// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryAccountRepository keeps accounts in process memory.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryAccountRepository creates an empty repository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]Account)}
}

func (repository *MemoryAccountRepository) FindByID(_ context.Context, id string) (*Account, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	account, ok := repository.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (repository *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	for _, account := range repository.accounts {
		if account.Email == email {
			return &account, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (repository *MemoryAccountRepository) Create(_ context.Context, account *Account) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.accounts {
		if existing.Email == account.Email {
			return ErrEmailTaken
		}
	}

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	repository.accounts[account.ID] = *account
	return nil
}

func (repository *MemoryAccountRepository) UpdatePassword(_ context.Context, accountID, newHash string) error {
	return repository.mutate(accountID, func(account *Account) { account.PasswordHash = newHash })
}

func (repository *MemoryAccountRepository) MarkVerified(_ context.Context, accountID string) error {
	return repository.mutate(accountID, func(account *Account) { account.EmailVerified = true })
}

func (repository *MemoryAccountRepository) mutate(accountID string, change func(*Account)) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	account, ok := repository.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	change(&account)
	account.UpdatedAt = time.Now()
	repository.accounts[accountID] = account
	return nil
}

type memoryToken struct {
	accountID string
	expiresAt time.Time
}

// MemoryTokenRepository keeps one-time tokens in process memory with expiry.
type MemoryTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

// NewMemoryTokenRepository creates an empty token repository.
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{tokens: make(map[string]memoryToken), now: time.Now}
}

func (repository *MemoryTokenRepository) Set(_ context.Context, tokenHash string, accountID string, ttl time.Duration) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	repository.tokens[tokenHash] = memoryToken{accountID: accountID, expiresAt: repository.now().Add(ttl)}
	return nil
}

func (repository *MemoryTokenRepository) Get(_ context.Context, tokenHash string) (string, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	token, ok := repository.tokens[tokenHash]
	if !ok {
		return "", ErrTokenNotFound
	}
	if repository.now().After(token.expiresAt) {
		delete(repository.tokens, tokenHash)
		return "", ErrTokenNotFound
	}
	return token.accountID, nil
}

func (repository *MemoryTokenRepository) Delete(_ context.Context, tokenHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	delete(repository.tokens, tokenHash)
	return nil
}
