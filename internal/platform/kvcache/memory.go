// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kvcache

import (
	"context"
	"sync"
)

// MemoryBackend keeps every workspace cache in process memory.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]map[string]string
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]map[string]string)}
}

// Scope returns the cache of one workspace.
func (backend *MemoryBackend) Scope(workspaceID string) Cache {
	return &memoryCache{backend: backend, workspaceID: workspaceID}
}

type memoryCache struct {
	backend     *MemoryBackend
	workspaceID string
}

func (cache *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	cache.backend.mu.Lock()
	defer cache.backend.mu.Unlock()

	value, ok := cache.backend.entries[cache.workspaceID][key]
	return value, ok, nil
}

func (cache *memoryCache) Set(_ context.Context, key, value string) error {
	cache.backend.mu.Lock()
	defer cache.backend.mu.Unlock()

	scoped, ok := cache.backend.entries[cache.workspaceID]
	if !ok {
		scoped = make(map[string]string)
		cache.backend.entries[cache.workspaceID] = scoped
	}
	scoped[key] = value
	return nil
}

func (cache *memoryCache) Remove(_ context.Context, key string) error {
	cache.backend.mu.Lock()
	defer cache.backend.mu.Unlock()

	delete(cache.backend.entries[cache.workspaceID], key)
	return nil
}
