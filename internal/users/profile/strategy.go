// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
)

// Strategy is one step of profile resolution. A miss passes to the next step.
type Strategy interface {
	// Name labels the resolution source in logs and metrics.
	Name() string
	Resolve(ctx context.Context, session *identity.Session) (Profile, bool)
}

// Resolve tries strategies in order and returns the first hit with its source.
// The last strategy is expected to always hit.
func Resolve(ctx context.Context, session *identity.Session, strategies []Strategy) (Profile, string) {
	for _, strategy := range strategies {
		if profile, ok := strategy.Resolve(ctx, session); ok {
			return profile, strategy.Name()
		}
	}
	return Defaults(""), sourceDefault
}

const (
	sourceRemote  = "remote"
	sourceCache   = "cache"
	sourceDefault = "default"
)

// # Remote

// remoteStrategy reads the document of a signed-in user.
type remoteStrategy struct {
	documents     docstore.Store
	collection    string
	defaultAvatar string
	logger        *slog.Logger
}

func (strategy remoteStrategy) Name() string { return sourceRemote }

func (strategy remoteStrategy) Resolve(ctx context.Context, session *identity.Session) (Profile, bool) {
	if session == nil || session.IsAnonymous {
		return Profile{}, false
	}

	document, err := strategy.documents.Read(ctx, strategy.collection, session.ID)
	if errors.Is(err, docstore.ErrNotFound) {
		return Profile{}, false
	}
	if err != nil {
		strategy.logger.Warn("profile_remote_read_failed",
			slog.String("session_id", session.ID),
			slog.Any("error", err),
		)
		return Profile{}, false
	}

	return FromFields(document.Fields, strategy.defaultAvatar), true
}

// # Cache

// cacheStrategy reads the workspace mirror. Role flags never come from the cache.
type cacheStrategy struct {
	cache         cacheReader
	key           string
	defaultAvatar string
	logger        *slog.Logger
}

type cacheReader interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

func (strategy cacheStrategy) Name() string { return sourceCache }

func (strategy cacheStrategy) Resolve(ctx context.Context, _ *identity.Session) (Profile, bool) {
	raw, found, err := strategy.cache.Get(ctx, strategy.key)
	if err != nil {
		strategy.logger.Warn("profile_cache_read_failed", slog.Any("error", err))
		return Profile{}, false
	}
	if !found {
		return Profile{}, false
	}

	var cached Profile
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		strategy.logger.Warn("profile_cache_corrupt", slog.Any("error", err))
		return Profile{}, false
	}

	if cached.Avatar == "" {
		cached.Avatar = Defaults(strategy.defaultAvatar).Avatar
	}
	cached.IsAdministrator = false
	cached.IsDisabled = false
	return cached, true
}

// # Default

type defaultStrategy struct {
	avatar string
}

func (strategy defaultStrategy) Name() string { return sourceDefault }

func (strategy defaultStrategy) Resolve(_ context.Context, session *identity.Session) (Profile, bool) {
	profile := Defaults(strategy.avatar)
	if session != nil && !session.IsAnonymous {
		profile.Email = session.Email
	}
	return profile, true
}
