// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
)

// Registry keeps live workspaces in memory and evicts idle ones.
type Registry struct {
	shared  Shared
	idleTTL time.Duration
	now     func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates an empty registry.
func NewRegistry(shared Shared, idleTTL time.Duration) *Registry {
	shared.Recorder = metrics.OrNop(shared.Recorder)
	return &Registry{
		shared:     shared,
		idleTTL:    idleTTL,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Get returns the workspace with id, creating it on first use or when the held
// one was closed. The workspace is marked as used under the registry lock, so
// a concurrent Sweep keeps it.
func (registry *Registry) Get(id string) *Workspace {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if workspace, ok := registry.workspaces[id]; ok && !workspace.closed.Load() {
		workspace.touch()
		return workspace
	}

	workspace := New(id, registry.shared)
	registry.workspaces[id] = workspace
	registry.shared.Recorder.SetActiveWorkspaces(len(registry.workspaces))
	registry.shared.Logger.Debug("workspace_created", slog.String("workspace_id", id))
	return workspace
}

// Do locks the workspace with id and runs fn. A workspace closed between
// lookup and lock is replaced by a fresh one.
func (registry *Registry) Do(id string, fn func(workspace *Workspace) error) error {
	err := registry.Get(id).Do(fn)
	if errors.Is(err, ErrClosed) {
		return registry.Get(id).Do(fn)
	}
	return err
}

// Len returns the number of live workspaces.
func (registry *Registry) Len() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.workspaces)
}

// Sweep closes workspaces idle for longer than the TTL and returns how many it removed.
func (registry *Registry) Sweep() int {
	cutoff := registry.now().Add(-registry.idleTTL)

	registry.mu.Lock()
	var expired []*Workspace
	for id, workspace := range registry.workspaces {
		if workspace.idleSince().Before(cutoff) {
			expired = append(expired, workspace)
			delete(registry.workspaces, id)
		}
	}
	registry.shared.Recorder.SetActiveWorkspaces(len(registry.workspaces))
	registry.mu.Unlock()

	for _, workspace := range expired {
		workspace.Close()
	}
	if len(expired) > 0 {
		registry.shared.Logger.Info("workspaces_evicted", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps periodically until ctx is cancelled.
func (registry *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.Sweep()
		}
	}
}

// Close closes every workspace.
func (registry *Registry) Close() {
	registry.mu.Lock()
	workspaces := registry.workspaces
	registry.workspaces = make(map[string]*Workspace)
	registry.mu.Unlock()

	for _, workspace := range workspaces {
		workspace.Close()
	}
}
