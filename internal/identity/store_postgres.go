// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/gatekeeper/internal/platform/database/schema"
	"github.com/taibuivan/gatekeeper/internal/platform/dberr"
)

// # Account Repository

// PostgresAccountRepository implements AccountRepository on identity.account.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

var accountColumns = schema.IdentityAccount.ColumnList()

/*
Create persists a new account record into the identity.account table.

Parameters:
  - context: context.Context
  - account: *Account (Entity to persist)

Returns:
  - error: ErrEmailTaken on the unique email index, or connectivity errors
*/
func (repository *PostgresAccountRepository) Create(context context.Context, account *Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		schema.IdentityAccount.Table, accountColumns)

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.EmailVerified,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("postgres_account_repo_create_failed: %w", err)
	}

	return nil
}

// FindByID retrieves an account by its primary key.
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		accountColumns, schema.IdentityAccount.Table, schema.IdentityAccount.ID)
	return repository.findOne(context, query, id)
}

// FindByEmail retrieves an account by its unique, normalized email address.
func (repository *PostgresAccountRepository) FindByEmail(context context.Context, email string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		accountColumns, schema.IdentityAccount.Table, schema.IdentityAccount.Email)
	return repository.findOne(context, query, email)
}

func (repository *PostgresAccountRepository) findOne(context context.Context, query string, argument string) (*Account, error) {
	account := &Account{}
	err := repository.pool.QueryRow(context, query, argument).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&account.EmailVerified,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("postgres_account_repo_find_failed: %w", err)
	}

	return account, nil
}

// UpdatePassword replaces the password hash of one account.
func (repository *PostgresAccountRepository) UpdatePassword(context context.Context, accountID, newHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = now() WHERE %s = $1`,
		schema.IdentityAccount.Table, schema.IdentityAccount.PasswordHash,
		schema.IdentityAccount.UpdatedAt, schema.IdentityAccount.ID)
	return repository.execOne(context, query, accountID, newHash)
}

// MarkVerified sets isverified = true.
func (repository *PostgresAccountRepository) MarkVerified(context context.Context, accountID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE, %s = now() WHERE %s = $1`,
		schema.IdentityAccount.Table, schema.IdentityAccount.IsVerified,
		schema.IdentityAccount.UpdatedAt, schema.IdentityAccount.ID)
	return repository.execOne(context, query, accountID)
}

func (repository *PostgresAccountRepository) execOne(context context.Context, query string, arguments ...any) error {
	tag, err := repository.pool.Exec(context, query, arguments...)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
