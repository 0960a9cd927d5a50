// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
	"github.com/taibuivan/gatekeeper/internal/platform/kvcache"
	"github.com/taibuivan/gatekeeper/internal/users/profile"
)

// # Fixtures

type fixedSession struct {
	session *identity.Session
}

func (source *fixedSession) Current() *identity.Session { return source.session }

// flakyStore fails every call while offline is set.
type flakyStore struct {
	docstore.Store
	offline bool
	writes  int
}

var errOffline = errors.New("unavailable: backend offline")

func (store *flakyStore) Read(ctx context.Context, collection, key string) (*docstore.Document, error) {
	if store.offline {
		return nil, errOffline
	}
	return store.Store.Read(ctx, collection, key)
}

func (store *flakyStore) Write(ctx context.Context, collection, key string, fields map[string]any, merge bool) error {
	store.writes++
	if store.offline {
		return errOffline
	}
	return store.Store.Write(ctx, collection, key, fields, merge)
}

type harness struct {
	source    *fixedSession
	documents *flakyStore
	cache     kvcache.Cache
	store     *profile.Store
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newHarness(session *identity.Session) *harness {
	source := &fixedSession{session: session}
	documents := &flakyStore{Store: docstore.NewMemory()}
	cache := kvcache.NewMemoryBackend().Scope("ws-1")
	store := profile.NewStore(source, documents, cache, profile.Options{
		Clock: func() time.Time { return fixedNow },
	}, nil, slog.Default())
	return &harness{source: source, documents: documents, cache: cache, store: store}
}

func member() *identity.Session {
	return &identity.Session{ID: "member-1", Email: "member@example.com", EmailVerified: true}
}

func cachedProfile(t *testing.T, cache kvcache.Cache) profile.Profile {
	t.Helper()
	raw, found, err := cache.Get(context.Background(), "userProfile")
	require.NoError(t, err)
	require.True(t, found)

	var cached profile.Profile
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	return cached
}

// # Get

/*
TestGet_FallbackOrder walks the resolution chain remote, cache, defaults.
*/
func TestGet_FallbackOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(member())

	assert.Equal(t, profile.Profile{Avatar: profile.DefaultAvatar, Email: "member@example.com"}, h.store.Get(ctx))

	require.NoError(t, h.cache.Set(ctx, "userProfile", `{"nickname":"cached","avatar":"🐱","is_administrator":true}`))
	fromCache := h.store.Get(ctx)
	assert.Equal(t, "cached", fromCache.Nickname)
	assert.False(t, fromCache.IsAdministrator)

	require.NoError(t, h.documents.Store.Write(ctx, "users", "member-1", map[string]any{
		"name": "remote", "icon": "🦊", "isAdmin": true,
	}, false))
	fromRemote := h.store.Get(ctx)
	assert.Equal(t, "remote", fromRemote.Nickname)
	assert.Equal(t, "🦊", fromRemote.Avatar)
	assert.True(t, fromRemote.IsAdministrator)
	assert.True(t, h.store.IsAdministrator(ctx))

	h.documents.offline = true
	assert.Equal(t, "cached", h.store.Get(ctx).Nickname)
	assert.False(t, h.store.IsAdministrator(ctx))
}

/*
TestGet_AnonymousUsesCacheOnly never reads a remote document for guests.
*/
func TestGet_AnonymousUsesCacheOnly(t *testing.T) {
	ctx := context.Background()
	guest := &identity.Session{ID: "guest-1", IsAnonymous: true}
	h := newHarness(guest)

	require.NoError(t, h.documents.Store.Write(ctx, "users", "guest-1", map[string]any{"name": "should not show"}, false))

	got := h.store.Get(ctx)
	assert.Equal(t, profile.Profile{Avatar: profile.DefaultAvatar}, got)
	assert.False(t, got.IsAdministrator)
}

/*
TestGet_LegacyFlagSpelling reads isadmin and isdisabled from older documents.
*/
func TestGet_LegacyFlagSpelling(t *testing.T) {
	ctx := context.Background()
	h := newHarness(member())

	require.NoError(t, h.documents.Store.Write(ctx, "users", "member-1", map[string]any{
		"name": "old", "isadmin": true, "isdisabled": true,
	}, false))
	got := h.store.Get(ctx)
	assert.True(t, got.IsAdministrator)
	assert.True(t, got.IsDisabled)

	require.NoError(t, h.documents.Store.Update(ctx, "users", "member-1", map[string]any{"isAdmin": false}))
	assert.False(t, h.store.Get(ctx).IsAdministrator)
}

// # Save

/*
TestSave_RoundTrip stores remotely and mirrors locally.
*/
func TestSave_RoundTrip(t *testing.T) {
	ctx := context.Background()
	h := newHarness(member())

	saved, err := h.store.Save(ctx, profile.Profile{Nickname: "  Tai  ", Avatar: "🐼"})
	require.NoError(t, err)
	assert.Equal(t, "Tai", saved.Nickname)

	got := h.store.Get(ctx)
	assert.Equal(t, "Tai", got.Nickname)
	assert.Equal(t, "🐼", got.Avatar)
	assert.Equal(t, fixedNow, got.LastUpdated)

	document, err := h.documents.Store.Read(ctx, "users", "member-1")
	require.NoError(t, err)
	assert.Equal(t, "member@example.com", document.Fields["email"])
	assert.Equal(t, "2026-03-01T10:00:00.000Z", document.Fields["lastUpdated"])

	assert.Equal(t, "Tai", cachedProfile(t, h.cache).Nickname)
}

/*
TestSave_RemoteFailureKeepsLocalCopy reports a partial failure and keeps the mirror.
*/
func TestSave_RemoteFailureKeepsLocalCopy(t *testing.T) {
	ctx := context.Background()
	h := newHarness(member())
	h.documents.offline = true

	_, err := h.store.Save(ctx, profile.Profile{Nickname: "offline", Avatar: "🐙"})

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, apperr.CodeStore, appError.Code)
	assert.True(t, appError.Partial)
	assert.Equal(t, "save failed: unavailable: backend offline", appError.Message)

	assert.Equal(t, "offline", cachedProfile(t, h.cache).Nickname)
	assert.Equal(t, "offline", h.store.Get(ctx).Nickname)
}

/*
TestSave_NicknameBoundary accepts twenty characters and rejects twenty-one
without writing anything.
*/
func TestSave_NicknameBoundary(t *testing.T) {
	ctx := context.Background()

	h := newHarness(member())
	_, err := h.store.Save(ctx, profile.Profile{Nickname: strings.Repeat("a", 20)})
	require.NoError(t, err)

	h = newHarness(member())
	_, err = h.store.Save(ctx, profile.Profile{Nickname: strings.Repeat("a", 21)})

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, apperr.CodeValidation, appError.Code)
	assert.Zero(t, h.documents.writes)

	_, found, err := h.cache.Get(ctx, "userProfile")
	require.NoError(t, err)
	assert.False(t, found)
}

/*
TestSave_NicknameCountsComposedCharacters normalizes before counting.
*/
func TestSave_NicknameCountsComposedCharacters(t *testing.T) {
	decomposed := strings.Repeat("e\u0301", 20)

	h := newHarness(nil)
	saved, err := h.store.Save(context.Background(), profile.Profile{Nickname: decomposed})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("\u00e9", 20), saved.Nickname)
}

/*
TestSave_AnonymousWritesCacheOnly never touches the document store for guests.
*/
func TestSave_AnonymousWritesCacheOnly(t *testing.T) {
	h := newHarness(&identity.Session{ID: "guest-1", IsAnonymous: true})

	_, err := h.store.Save(context.Background(), profile.Profile{Nickname: "guest"})
	require.NoError(t, err)

	assert.Zero(t, h.documents.writes)
	assert.Equal(t, profile.DefaultAvatar, cachedProfile(t, h.cache).Avatar)
}

// # Lifecycle

/*
TestSeedAndClearLocal covers sign-up seeding and the reset hook.
*/
func TestSeedAndClearLocal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	registered := &identity.Session{ID: "new-1", Email: "new@example.com"}

	require.NoError(t, h.store.Seed(ctx, registered, "Newbie", false))

	document, err := h.documents.Store.Read(ctx, "users", "new-1")
	require.NoError(t, err)
	assert.Equal(t, false, document.Fields["isAdmin"])
	assert.Equal(t, false, document.Fields["isDisabled"])
	assert.Equal(t, "2026-03-01T10:00:00.000Z", document.Fields["createdAt"])

	_, err = h.store.Save(ctx, profile.Profile{Nickname: "local"})
	require.NoError(t, err)
	require.NoError(t, h.store.ClearLocal(ctx))
	_, found, err := h.cache.Get(ctx, "userProfile")
	require.NoError(t, err)
	assert.False(t, found)
}

/*
TestDisplay_NameFallbacks resolves the header name.
*/
func TestDisplay_NameFallbacks(t *testing.T) {
	ctx := context.Background()

	h := newHarness(&identity.Session{ID: "guest", IsAnonymous: true})
	assert.Equal(t, profile.AnonymousLabel, h.store.Display(ctx).Name)

	h = newHarness(&identity.Session{ID: "m", Email: "m@example.com", DisplayName: "Provider Name", EmailVerified: true})
	assert.Equal(t, "Provider Name", h.store.Display(ctx).Name)

	h = newHarness(&identity.Session{ID: "m", Email: "m@example.com", EmailVerified: true})
	assert.Equal(t, "m@example.com", h.store.Display(ctx).Name)

	_, err := h.store.Save(ctx, profile.Profile{Nickname: "Chosen"})
	require.NoError(t, err)
	display := h.store.Display(ctx)
	assert.Equal(t, "Chosen", display.Name)
	assert.Equal(t, profile.DefaultAvatar, display.Avatar)
}

/*
TestDisabledChecker reads both spellings and treats missing documents as enabled.
*/
func TestDisabledChecker(t *testing.T) {
	ctx := context.Background()
	documents := docstore.NewMemory()
	checker := profile.NewDisabledChecker(documents, "users")

	disabled, err := checker.IsDisabled(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, disabled)

	require.NoError(t, documents.Write(ctx, "users", "legacy", map[string]any{"isdisabled": true}, false))
	disabled, err = checker.IsDisabled(ctx, "legacy")
	require.NoError(t, err)
	assert.True(t, disabled)
}
