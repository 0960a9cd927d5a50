// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package workspace

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/notify"
	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
	"github.com/taibuivan/gatekeeper/internal/platform/kvcache"
	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
	"github.com/taibuivan/gatekeeper/internal/platform/sec"
	"github.com/taibuivan/gatekeeper/internal/users/profile"
)

func newShared(recorder metrics.Recorder) Shared {
	return newSharedWith(recorder, identity.NewMemoryAccountRepository())
}

func newSharedWith(recorder metrics.Recorder, accounts identity.AccountRepository) Shared {
	logger := slog.Default()
	return Shared{
		Identity: identity.NewService(
			accounts,
			identity.NewMemoryTokenRepository(),
			identity.NewMemoryTokenRepository(),
			identity.NewLogMailer(logger),
			identity.ServiceOptions{PublicBaseURL: "http://localhost", AllowAnonymous: true, EmailRatePerMinute: 5},
			logger,
		),
		Documents: docstore.NewMemory(),
		Caches:    kvcache.NewMemoryBackend(),
		Recorder:  recorder,
		Logger:    logger,
	}
}

/*
TestRegistry_GetReusesWorkspace returns the same instance per id.
*/
func TestRegistry_GetReusesWorkspace(t *testing.T) {
	registry := NewRegistry(newShared(nil), time.Hour)

	first := registry.Get("a")
	assert.Same(t, first, registry.Get("a"))
	assert.NotSame(t, first, registry.Get("b"))
	assert.Equal(t, 2, registry.Len())
}

/*
TestRegistry_SweepEvictsIdle removes only workspaces past the TTL and updates the gauge.
*/
func TestRegistry_SweepEvictsIdle(t *testing.T) {
	registry := prometheus.NewRegistry()
	workspaces := NewRegistry(newShared(metrics.NewCollector(registry)), time.Hour)

	stale := workspaces.Get("stale")
	stale.seenMu.Lock()
	stale.lastSeen = time.Now().Add(-2 * time.Hour)
	stale.seenMu.Unlock()
	workspaces.Get("fresh")

	assert.Equal(t, 1, workspaces.Sweep())
	assert.Equal(t, 1, workspaces.Len())

	expected := `
# HELP gatekeeper_active_workspaces Browser workspaces currently held in memory.
# TYPE gatekeeper_active_workspaces gauge
gatekeeper_active_workspaces 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "gatekeeper_active_workspaces"))
}

/*
TestWorkspace_HeaderFollowsSession refreshes the header on sign-in and clears it on sign-out.
*/
func TestWorkspace_HeaderFollowsSession(t *testing.T) {
	registry := NewRegistry(newShared(nil), time.Hour)
	ctx := context.Background()

	err := registry.Do("ws", func(workspace *Workspace) error {
		assert.Nil(t, workspace.Header())
		assert.True(t, workspace.View.Snapshot().LoginForced)

		if _, err := workspace.Flows.SignInAnonymously(ctx); err != nil {
			return err
		}
		header := workspace.Header()
		require.NotNil(t, header)
		assert.Equal(t, profile.AnonymousLabel, header.Name)
		assert.True(t, workspace.View.Snapshot().ContentVisible)

		if _, err := workspace.Flows.SignOut(ctx); err != nil {
			return err
		}
		assert.Nil(t, workspace.Header())
		assert.True(t, workspace.View.Snapshot().LoginForced)
		return nil
	})
	require.NoError(t, err)
}

/*
TestWorkspace_CachesAreIsolated keeps one workspace's mirror away from another.
*/
func TestWorkspace_CachesAreIsolated(t *testing.T) {
	registry := NewRegistry(newShared(nil), time.Hour)
	ctx := context.Background()

	_, err := registry.Get("a").Profiles.Save(ctx, profile.Profile{Nickname: "from a"})
	require.NoError(t, err)

	assert.Equal(t, "", registry.Get("b").Profiles.Get(ctx).Nickname)
	assert.Equal(t, "from a", registry.Get("a").Profiles.Get(ctx).Nickname)
}

// verifiedAccounts returns a repository holding one verified account per email,
// all with the password "secret-pass".
func verifiedAccounts(t *testing.T, emails ...string) *identity.MemoryAccountRepository {
	t.Helper()
	accounts := identity.NewMemoryAccountRepository()
	hash, err := sec.HashPassword("secret-pass")
	require.NoError(t, err)
	for _, email := range emails {
		require.NoError(t, accounts.Create(context.Background(), &identity.Account{
			ID: strings.Split(email, "@")[0], Email: email, PasswordHash: hash, EmailVerified: true,
		}))
	}
	return accounts
}

func backdate(workspace *Workspace, by time.Duration) {
	workspace.seenMu.Lock()
	workspace.lastSeen = time.Now().Add(-by)
	workspace.seenMu.Unlock()
}

/*
TestRegistry_EvictionForgetsPreviousUser makes sure a workspace rebuilt after
eviction never shows the previous user's profile to the next one.
*/
func TestRegistry_EvictionForgetsPreviousUser(t *testing.T) {
	shared := newSharedWith(nil, verifiedAccounts(t, "alice@example.com", "bob@example.com"))
	registry := NewRegistry(shared, time.Hour)
	ctx := context.Background()

	require.NoError(t, registry.Do("w", func(workspace *Workspace) error {
		if _, err := workspace.Flows.SignIn(ctx, "alice@example.com", "secret-pass"); err != nil {
			return err
		}
		_, err := workspace.Profiles.Save(ctx, profile.Profile{Nickname: "Alice", Avatar: "🐱"})
		return err
	}))

	backdate(registry.Get("w"), 2*time.Hour)
	require.Equal(t, 1, registry.Sweep())

	_, found, err := shared.Caches.Scope("w").Get(ctx, "userProfile")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, registry.Do("w", func(workspace *Workspace) error {
		if _, err := workspace.Flows.SignIn(ctx, "bob@example.com", "secret-pass"); err != nil {
			return err
		}
		display := workspace.Profiles.Display(ctx)
		assert.Equal(t, "bob@example.com", display.Name)
		assert.Equal(t, profile.DefaultAvatar, display.Avatar)
		return nil
	}))
}

/*
TestRegistry_GetKeepsWorkspaceAlive protects a just-fetched workspace from the sweeper.
*/
func TestRegistry_GetKeepsWorkspaceAlive(t *testing.T) {
	registry := NewRegistry(newShared(nil), time.Hour)

	first := registry.Get("w")
	backdate(first, 2*time.Hour)

	assert.Same(t, first, registry.Get("w"))
	assert.Equal(t, 0, registry.Sweep())
}

/*
TestRegistry_DoReplacesClosedWorkspace never runs work on an evicted workspace.
*/
func TestRegistry_DoReplacesClosedWorkspace(t *testing.T) {
	registry := NewRegistry(newShared(nil), time.Hour)

	stale := registry.Get("w")
	backdate(stale, 2*time.Hour)
	require.Equal(t, 1, registry.Sweep())

	ran := false
	assert.ErrorIs(t, stale.Do(func(*Workspace) error { ran = true; return nil }), ErrClosed)
	assert.False(t, ran)

	var used *Workspace
	require.NoError(t, registry.Do("w", func(workspace *Workspace) error {
		used = workspace
		return nil
	}))
	assert.NotSame(t, stale, used)

	closed := registry.Get("x")
	closed.Close()
	closed.Close()
	assert.NotSame(t, closed, registry.Get("x"))
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (brokenCache) Set(context.Context, string, string) error          { return nil }
func (brokenCache) Remove(context.Context, string) error {
	return errors.New("storage unavailable")
}

type brokenBackend struct{}

func (brokenBackend) Scope(string) kvcache.Cache { return brokenCache{} }

/*
TestWorkspace_ResetFailureIsNotified tells the user when the local copy survives a reset.
*/
func TestWorkspace_ResetFailureIsNotified(t *testing.T) {
	shared := newShared(nil)
	shared.Caches = brokenBackend{}
	registry := NewRegistry(shared, time.Hour)

	workspace := registry.Get("w")
	workspace.State.Reset(context.Background())

	drained := workspace.Notifications.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, notify.KindWarning, drained[0].Kind)
	assert.Equal(t, "The local profile copy could not be cleared.", drained[0].Message)
}
