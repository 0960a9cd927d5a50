// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kvcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/gatekeeper/internal/platform/constants"
)

// RedisBackend stores workspace caches under "workspace:<id>:<key>".
type RedisBackend struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisBackend creates a backend whose entries expire ttl after their last write.
// A zero ttl keeps entries until removed.
func NewRedisBackend(client redis.UniversalClient, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

// Scope returns the cache of one workspace.
func (backend *RedisBackend) Scope(workspaceID string) Cache {
	return &redisCache{
		client: backend.client,
		ttl:    backend.ttl,
		prefix: constants.RedisPrefixLocalCache + workspaceID + ":",
	}
}

type redisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

/*
Get reads a key of this workspace.

Returns:
  - string: Stored value
  - bool: false when the key is absent or expired
  - error: Connectivity errors
*/
func (repository *redisCache) Get(context context.Context, key string) (string, bool, error) {
	value, err := repository.client.Get(context, repository.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis_cache_get_failed: %w", err)
	}
	return value, true, nil
}

func (repository *redisCache) Set(context context.Context, key, value string) error {
	if err := repository.client.Set(context, repository.prefix+key, value, repository.ttl).Err(); err != nil {
		return fmt.Errorf("redis_cache_set_failed: %w", err)
	}
	return nil
}

func (repository *redisCache) Remove(context context.Context, key string) error {
	if err := repository.client.Del(context, repository.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis_cache_remove_failed: %w", err)
	}
	return nil
}
