// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package directory is the administrator view over every profile document.

Every operation first checks that the current session belongs to an
administrator. A refused call touches neither the document store nor the
identity provider.

Failures keep the collaborator's raw message behind an action label
("load failed: ...") because administrators need the detail to diagnose.
The directory never refreshes itself; callers list again after a mutation.
*/
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
	"github.com/taibuivan/gatekeeper/internal/platform/validate"
	"github.com/taibuivan/gatekeeper/internal/users/profile"
	"github.com/taibuivan/gatekeeper/pkg/slice"
)

// ForbiddenMessage is returned to callers without the administrator flag.
const ForbiddenMessage = "Administrator privileges required"

// Operation names used in logs and metrics.
const (
	OpList          = "list"
	OpSetDisabled   = "set_disabled"
	OpRemove        = "remove"
	OpPasswordReset = "password_reset"
)

// # Domain Model

// Entry is a read-only projection of one profile document.
type Entry struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Nickname        string    `json:"nickname"`
	Avatar          string    `json:"avatar"`
	IsAdministrator bool      `json:"is_administrator"`
	IsDisabled      bool      `json:"is_disabled"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	LastUpdated     time.Time `json:"last_updated,omitzero"`
}

// Privilege reports whether the current session may administer the directory.
type Privilege interface {
	IsAdministrator(ctx context.Context) bool
}

// ResetSender mails password reset links. The identity provider satisfies it.
type ResetSender interface {
	RequestPasswordReset(ctx context.Context, email string) error
}

// Options configures a [Directory].
type Options struct {
	Collection    string
	DefaultAvatar string
	Clock         func() time.Time
}

// # Directory

// Directory runs administrator operations for one workspace.
type Directory struct {
	privilege Privilege
	documents docstore.Store
	resets    ResetSender
	options   Options
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// New wires a directory.
func New(privilege Privilege, documents docstore.Store, resets ResetSender, options Options, recorder metrics.Recorder, logger *slog.Logger) *Directory {
	if options.Collection == "" {
		options.Collection = "users"
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}
	return &Directory{
		privilege: privilege,
		documents: documents,
		resets:    resets,
		options:   options,
		recorder:  metrics.OrNop(recorder),
		logger:    logger,
	}
}

/*
ListAll returns every profile, most recently updated first. Documents without
lastUpdated come last.

Returns:
  - []Entry: The full directory; never partial
  - error: FORBIDDEN, or STORE_ERROR "load failed: <raw>"
*/
func (directory *Directory) ListAll(ctx context.Context) ([]Entry, error) {
	if err := directory.authorize(ctx, OpList); err != nil {
		return nil, err
	}

	documents, err := directory.documents.Query(ctx, directory.options.Collection, profile.FieldLastUpdated, docstore.Descending)
	if err != nil {
		return nil, directory.fail(OpList, "load failed", err)
	}

	entries := slice.Map(documents, directory.toEntry)
	if entries == nil {
		entries = []Entry{}
	}

	directory.recorder.RecordAdminOperation(OpList, "ok")
	return entries, nil
}

/*
SetDisabled flips the isDisabled flag of a profile. Repeating the call is harmless.

Parameters:
  - ctx: context.Context
  - id: string (profile key, equal to the account id)
  - disabled: bool

Returns:
  - string: "User <id> disabled" or "User <id> enabled"
  - error: FORBIDDEN, NOT_FOUND, or STORE_ERROR "update failed: <raw>"
*/
func (directory *Directory) SetDisabled(ctx context.Context, id string, disabled bool) (string, error) {
	if err := directory.authorize(ctx, OpSetDisabled); err != nil {
		return "", err
	}

	err := directory.documents.Update(ctx, directory.options.Collection, id, map[string]any{
		profile.FieldIsDisabled:  disabled,
		profile.FieldLastUpdated: docstore.FormatTime(directory.options.Clock()),
	})
	if errors.Is(err, docstore.ErrNotFound) {
		directory.recorder.RecordAdminOperation(OpSetDisabled, "not_found")
		return "", apperr.NotFound("User " + id)
	}
	if err != nil {
		return "", directory.fail(OpSetDisabled, "update failed", err)
	}

	state := "enabled"
	if disabled {
		state = "disabled"
	}

	directory.recorder.RecordAdminOperation(OpSetDisabled, "ok")
	directory.logger.Info("directory_user_state_changed",
		slog.String("user_id", id),
		slog.Bool("disabled", disabled),
	)
	return fmt.Sprintf("User %s %s", id, state), nil
}

/*
Remove deletes a profile document. The identity account itself is kept.

Returns:
  - string: "User <id> deleted"
  - error: FORBIDDEN, NOT_FOUND, or STORE_ERROR "delete failed: <raw>"
*/
func (directory *Directory) Remove(ctx context.Context, id string) (string, error) {
	if err := directory.authorize(ctx, OpRemove); err != nil {
		return "", err
	}

	err := directory.documents.Delete(ctx, directory.options.Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		directory.recorder.RecordAdminOperation(OpRemove, "not_found")
		return "", apperr.NotFound("User " + id)
	}
	if err != nil {
		return "", directory.fail(OpRemove, "delete failed", err)
	}

	directory.recorder.RecordAdminOperation(OpRemove, "ok")
	directory.logger.Info("directory_user_removed", slog.String("user_id", id))
	return fmt.Sprintf("User %s deleted", id), nil
}

/*
TriggerPasswordReset asks the identity provider to mail a reset link.

Returns:
  - string: Confirmation naming the address
  - error: FORBIDDEN, VALIDATION_ERROR for a malformed address, or
    STORE_ERROR "reset failed: <raw>"
*/
func (directory *Directory) TriggerPasswordReset(ctx context.Context, email string) (string, error) {
	if err := directory.authorize(ctx, OpPasswordReset); err != nil {
		return "", err
	}

	v := &validate.Validator{}
	v.Required("email", email).Email("email", email)
	if err := v.Err(); err != nil {
		directory.recorder.RecordAdminOperation(OpPasswordReset, "invalid")
		return "", err
	}

	if err := directory.resets.RequestPasswordReset(ctx, email); err != nil {
		return "", directory.fail(OpPasswordReset, "reset failed", err)
	}

	directory.recorder.RecordAdminOperation(OpPasswordReset, "ok")
	return "Password reset email sent to " + email, nil
}

// # Helpers

func (directory *Directory) authorize(ctx context.Context, operation string) error {
	if directory.privilege.IsAdministrator(ctx) {
		return nil
	}
	directory.recorder.RecordAdminOperation(operation, "forbidden")
	directory.logger.Warn("directory_access_denied", slog.String("operation", operation))
	return apperr.Forbidden(ForbiddenMessage)
}

func (directory *Directory) fail(operation, label string, err error) error {
	directory.recorder.RecordAdminOperation(operation, "error")
	directory.logger.Error("directory_operation_failed",
		slog.String("operation", operation),
		slog.Any("error", err),
	)
	return apperr.Store(label+": "+rawMessage(err), err)
}

// rawMessage unwraps provider errors to the message the provider gave.
func rawMessage(err error) string {
	var appError *apperr.AppError
	if errors.As(err, &appError) {
		return appError.Message
	}
	return err.Error()
}

func (directory *Directory) toEntry(document docstore.Document) Entry {
	mapped := profile.FromFields(document.Fields, directory.options.DefaultAvatar)
	return Entry{
		ID:              document.Key,
		Email:           mapped.Email,
		Nickname:        mapped.Nickname,
		Avatar:          mapped.Avatar,
		IsAdministrator: mapped.IsAdministrator,
		IsDisabled:      mapped.IsDisabled,
		CreatedAt:       mapped.CreatedAt,
		LastUpdated:     mapped.LastUpdated,
	}
}

// # Summaries

// Summary counts directory entries by state.
type Summary struct {
	Total          int `json:"total"`
	Administrators int `json:"administrators"`
	Disabled       int `json:"disabled"`
}

// Summarize counts entries already listed by [Directory.ListAll].
func Summarize(entries []Entry) Summary {
	return slice.Reduce(entries, Summary{}, func(summary Summary, entry Entry) Summary {
		summary.Total++
		if entry.IsAdministrator {
			summary.Administrators++
		}
		if entry.IsDisabled {
			summary.Disabled++
		}
		return summary
	})
}

// DisabledOnly keeps the disabled entries.
func DisabledOnly(entries []Entry) []Entry {
	return slice.Filter(entries, func(entry Entry) bool { return entry.IsDisabled })
}
