// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package kvcache is the workspace-local durable key-value cache.

It plays the role of browser local storage: a tiny string surface scoped to
one workspace. The profile store mirrors every saved profile here so that a
failed remote write never loses the user's intent.

A [Backend] is shared by the process; [Backend.Scope] hands each workspace a
[Cache] that can only see its own keys.
*/
package kvcache

import "context"

// Cache is the per-workspace key-value surface.
type Cache interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Backend creates workspace-scoped caches.
type Backend interface {
	Scope(workspaceID string) Cache
}
