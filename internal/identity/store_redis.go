// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenRepository implements TokenRepository using Redis TTL keys.
type RedisTokenRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewTokenRepository creates a Redis-backed TokenRepository whose keys start with prefix
// (constants.RedisPrefixResetToken or constants.RedisPrefixVerifyToken).
func NewTokenRepository(client redis.UniversalClient, prefix string) *RedisTokenRepository {
	return &RedisTokenRepository{client: client, prefix: prefix}
}

/*
Set stores a token digest with its associated account ID and TTL.

Parameters:
  - context: context.Context
  - tokenHash: string
  - accountID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisTokenRepository) Set(context context.Context, tokenHash string, accountID string, ttl time.Duration) error {
	if err := repository.client.Set(context, repository.prefix+tokenHash, accountID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_token_set_failed: %w", err)
	}
	return nil
}

/*
Get retrieves the account ID for a given token digest.

Returns:
  - string: Account ID
  - error: ErrTokenNotFound if the token is absent or expired, or connectivity errors
*/
func (repository *RedisTokenRepository) Get(context context.Context, tokenHash string) (string, error) {
	accountID, err := repository.client.Get(context, repository.prefix+tokenHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("redis_token_get_failed: %w", err)
	}
	return accountID, nil
}

// Delete removes a token digest.
func (repository *RedisTokenRepository) Delete(context context.Context, tokenHash string) error {
	if err := repository.client.Del(context, repository.prefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("redis_token_delete_failed: %w", err)
	}
	return nil
}
