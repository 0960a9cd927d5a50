// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
	"github.com/taibuivan/gatekeeper/internal/platform/kvcache"
	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
)

// SessionSource yields the accepted session of the workspace.
type SessionSource interface {
	Current() *identity.Session
}

// Options configures a [Store].
type Options struct {
	// Collection holds one document per signed-in user.
	Collection string
	// CacheKey is the workspace-local mirror entry.
	CacheKey string
	// DefaultAvatar replaces an empty avatar.
	DefaultAvatar string
	// Clock stamps lastUpdated. Defaults to time.Now.
	Clock func() time.Time
}

// # Store

// Store reads and writes the profile of the current session of one workspace.
type Store struct {
	sessions   SessionSource
	documents  docstore.Store
	cache      kvcache.Cache
	options    Options
	strategies []Strategy
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// NewStore wires a profile store for one workspace.
func NewStore(
	sessions SessionSource,
	documents docstore.Store,
	cache kvcache.Cache,
	options Options,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Store {
	if options.Collection == "" {
		options.Collection = "users"
	}
	if options.CacheKey == "" {
		options.CacheKey = "userProfile"
	}
	if options.DefaultAvatar == "" {
		options.DefaultAvatar = DefaultAvatar
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}

	return &Store{
		sessions:  sessions,
		documents: documents,
		cache:     cache,
		options:   options,
		strategies: []Strategy{
			remoteStrategy{documents: documents, collection: options.Collection, defaultAvatar: options.DefaultAvatar, logger: logger},
			cacheStrategy{cache: cache, key: options.CacheKey, defaultAvatar: options.DefaultAvatar, logger: logger},
			defaultStrategy{avatar: options.DefaultAvatar},
		},
		recorder: metrics.OrNop(recorder),
		logger:   logger,
	}
}

// Get resolves the profile of the current session: remote document, then the
// local mirror, then defaults. It never fails.
func (store *Store) Get(ctx context.Context) Profile {
	profile, source := Resolve(ctx, store.sessions.Current(), store.strategies)
	store.recorder.RecordProfileResolved(source)
	return profile
}

// IsAdministrator reports the role flag of the current session's profile.
func (store *Store) IsAdministrator(ctx context.Context) bool {
	return store.Get(ctx).IsAdministrator
}

// Display returns the header identity of the current session.
func (store *Store) Display(ctx context.Context) Identity {
	session := store.sessions.Current()
	profile := store.Get(ctx)

	display := Identity{Name: profile.Nickname, Avatar: profile.Avatar}
	if session != nil {
		display.IsAnonymous = session.IsAnonymous
	}

	if display.Name == "" && session != nil {
		switch {
		case session.IsAnonymous:
			display.Name = AnonymousLabel
		case session.DisplayName != "":
			display.Name = session.DisplayName
		default:
			display.Name = session.Email
		}
	}
	if display.Avatar == "" {
		display.Avatar = store.options.DefaultAvatar
	}
	return display
}

/*
Save stores the profile of the current session.

Description: The nickname is normalized and validated first; an invalid
profile is not written anywhere. Signed-in users get a merge-write of name,
icon, email and lastUpdated on their document. The local mirror is written
afterwards whatever the remote outcome.

Parameters:
  - ctx: context.Context
  - profile: Profile (Nickname and Avatar are used; role flags are ignored remotely)

Returns:
  - Profile: The profile as stored in the local mirror
  - error: VALIDATION_ERROR, or STORE_ERROR flagged Partial when only the mirror was written
*/
func (store *Store) Save(ctx context.Context, profile Profile) (Profile, error) {
	profile.Nickname = NormalizeNickname(profile.Nickname)
	if err := Validate(profile); err != nil {
		return Profile{}, err
	}
	if profile.Avatar == "" {
		profile.Avatar = store.options.DefaultAvatar
	}

	session := store.sessions.Current()
	now := store.options.Clock().UTC().Truncate(time.Millisecond)
	profile.LastUpdated = now

	var remoteErr error
	if session != nil && !session.IsAnonymous {
		profile.Email = session.Email
		remoteErr = store.documents.Write(ctx, store.options.Collection, session.ID, map[string]any{
			FieldName:        profile.Nickname,
			FieldIcon:        profile.Avatar,
			FieldEmail:       session.Email,
			FieldLastUpdated: docstore.FormatTime(now),
		}, true)
	}

	cacheErr := store.writeCache(ctx, profile)

	switch {
	case remoteErr != nil && cacheErr != nil:
		store.recorder.RecordProfileRemoteSaveFailed()
		return profile, apperr.Store(
			fmt.Sprintf("save failed: %s; local copy failed: %s", remoteErr.Error(), cacheErr.Error()),
			remoteErr,
		)
	case remoteErr != nil:
		store.recorder.RecordProfileRemoteSaveFailed()
		store.logger.Warn("profile_remote_save_failed",
			slog.String("session_id", session.ID),
			slog.Any("error", remoteErr),
		)
		appError := apperr.Store("save failed: "+remoteErr.Error(), remoteErr)
		appError.Partial = true
		return profile, appError
	case cacheErr != nil:
		return profile, apperr.Store("local copy failed: "+cacheErr.Error(), cacheErr)
	}

	store.logger.Info("profile_saved", slog.Bool("remote", session != nil && !session.IsAnonymous))
	return profile, nil
}

func (store *Store) writeCache(ctx context.Context, profile Profile) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("profile_cache_encode_failed: %w", err)
	}
	if err := store.cache.Set(ctx, store.options.CacheKey, string(encoded)); err != nil {
		return fmt.Errorf("profile_cache_write_failed: %w", err)
	}
	return nil
}

// ClearLocal removes the workspace mirror. It runs whenever the identity of
// the workspace is discarded.
func (store *Store) ClearLocal(ctx context.Context) error {
	if err := store.cache.Remove(ctx, store.options.CacheKey); err != nil {
		store.logger.Warn("profile_cache_clear_failed", slog.Any("error", err))
		return fmt.Errorf("profile_cache_clear_failed: %w", err)
	}
	return nil
}

/*
Seed creates the document of a newly registered account with the default role
and state.

Parameters:
  - ctx: context.Context
  - session: *identity.Session (the registered, still unverified account)
  - nickname: string
  - administrator: bool (true for bootstrap administrator addresses)

Returns:
  - error: VALIDATION_ERROR or a wrapped store failure
*/
func (store *Store) Seed(ctx context.Context, session *identity.Session, nickname string, administrator bool) error {
	nickname = NormalizeNickname(nickname)
	if err := Validate(Profile{Nickname: nickname}); err != nil {
		return err
	}

	stamp := docstore.FormatTime(store.options.Clock())
	err := store.documents.Write(ctx, store.options.Collection, session.ID, map[string]any{
		FieldName:        nickname,
		FieldIcon:        store.options.DefaultAvatar,
		FieldEmail:       session.Email,
		FieldIsAdmin:     administrator,
		FieldIsDisabled:  false,
		FieldCreatedAt:   stamp,
		FieldLastUpdated: stamp,
	}, false)
	if err != nil {
		return fmt.Errorf("profile_seed_failed: %w", err)
	}

	store.logger.Info("profile_seeded",
		slog.String("session_id", session.ID),
		slog.Bool("administrator", administrator),
	)
	return nil
}
