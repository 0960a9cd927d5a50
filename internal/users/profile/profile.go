// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package profile owns user-chosen display data and the role flags stored next to it.

A profile lives in the document store under the session id of a signed-in user,
and is mirrored into the workspace-local cache on every save. Anonymous and
signed-out workspaces only ever use the cache.

# Wire format

Remote documents keep the field names of the original browser client: name,
icon, email, isAdmin, isDisabled, createdAt and lastUpdated. Older documents
spell the flags isadmin and isdisabled; both spellings are read.
*/
package profile

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
	"github.com/taibuivan/gatekeeper/internal/platform/validate"
)

// # Constants

const (
	// MaxNicknameLength is counted in characters after NFC normalization.
	MaxNicknameLength = 20

	// DefaultAvatar is shown when no avatar was chosen.
	DefaultAvatar = "👤"
)

// Remote document field names.
const (
	FieldName        = "name"
	FieldIcon        = "icon"
	FieldEmail       = "email"
	FieldIsAdmin     = "isAdmin"
	FieldIsDisabled  = "isDisabled"
	FieldCreatedAt   = "createdAt"
	FieldLastUpdated = "lastUpdated"

	legacyFieldIsAdmin    = "isadmin"
	legacyFieldIsDisabled = "isdisabled"
)

// # Domain Model

// Profile is the display and role data of one user.
type Profile struct {
	Nickname        string    `json:"nickname"`
	Avatar          string    `json:"avatar"`
	IsAdministrator bool      `json:"is_administrator"`
	IsDisabled      bool      `json:"is_disabled"`
	Email           string    `json:"email,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	LastUpdated     time.Time `json:"last_updated,omitzero"`
}

// Defaults returns the profile of a user who never saved one.
func Defaults(avatar string) Profile {
	if avatar == "" {
		avatar = DefaultAvatar
	}
	return Profile{Avatar: avatar}
}

// NormalizeNickname trims surrounding space and applies NFC so that composed
// and decomposed input count the same number of characters.
func NormalizeNickname(nickname string) string {
	return norm.NFC.String(strings.TrimSpace(nickname))
}

// Validate checks a normalized profile before any write.
func Validate(profile Profile) error {
	v := &validate.Validator{}
	v.MaxLen("nickname", profile.Nickname, MaxNicknameLength)
	v.Custom("nickname", strings.ContainsAny(profile.Nickname, "\r\n"), "Must be a single line")
	return v.Err()
}

// # Field Mapping

/*
FromFields maps a remote document to a profile. Missing fields fall back to
the defaults.

Parameters:
  - fields: map[string]any (document body)
  - defaultAvatar: string

Returns:
  - Profile: The mapped profile
*/
func FromFields(fields map[string]any, defaultAvatar string) Profile {
	profile := Defaults(defaultAvatar)

	if name, ok := fields[FieldName].(string); ok {
		profile.Nickname = name
	}
	if icon, ok := fields[FieldIcon].(string); ok && icon != "" {
		profile.Avatar = icon
	}
	if email, ok := fields[FieldEmail].(string); ok {
		profile.Email = email
	}

	profile.IsAdministrator = readFlag(fields, FieldIsAdmin, legacyFieldIsAdmin)
	profile.IsDisabled = readFlag(fields, FieldIsDisabled, legacyFieldIsDisabled)
	profile.CreatedAt = docstore.ParseTime(fields[FieldCreatedAt])
	profile.LastUpdated = docstore.ParseTime(fields[FieldLastUpdated])

	return profile
}

// readFlag prefers the canonical spelling and falls back to the legacy one.
func readFlag(fields map[string]any, canonical, legacy string) bool {
	if value, ok := fields[canonical].(bool); ok {
		return value
	}
	value, _ := fields[legacy].(bool)
	return value
}

// # Display Identity

// AnonymousLabel names guest users in the header.
const AnonymousLabel = "Anonymous user"

// Identity is what the header shows for the current user.
type Identity struct {
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	IsAnonymous bool   `json:"is_anonymous"`
}
