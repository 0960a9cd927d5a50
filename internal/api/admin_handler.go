// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gatekeeper/internal/confirm"
	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	requestutil "github.com/taibuivan/gatekeeper/internal/platform/request"
	"github.com/taibuivan/gatekeeper/internal/platform/respond"
	"github.com/taibuivan/gatekeeper/internal/users/directory"
	"github.com/taibuivan/gatekeeper/internal/workspace"
)

// AdminHandler exposes the administrator directory.
//
// # Confirmation
//
// Destructive operations (disable, delete, password reset) only register a
// confirmation and answer 202. Nothing changes until the client posts to
// /confirmation/confirm; a cancel or dismiss drops the request.
type AdminHandler struct {
	workspaces workspaces
}

// NewAdminHandler constructs an [AdminHandler].
func NewAdminHandler(registry *workspace.Registry) *AdminHandler {
	return &AdminHandler{workspaces: workspaces{registry: registry}}
}

// Routes returns a [chi.Router] configured with the directory endpoints.
//
// # Endpoints
//   - GET    /users                   : Directory listing, newest first.
//   - POST   /users/{id}/enable       : Re-enables an account (no confirmation).
//   - POST   /users/{id}/disable      : Asks to disable an account.
//   - DELETE /users/{id}              : Asks to delete a profile record.
//   - POST   /password-reset          : Asks to send a reset email.
//   - GET    /confirmation            : The pending confirmation, if any.
//   - POST   /confirmation/confirm    : Runs the pending operation.
//   - POST   /confirmation/cancel     : Drops the pending operation.
//   - POST   /confirmation/dismiss    : Same as cancel, from outside the dialog.
func (handler *AdminHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/users", handler.listUsers)
	router.Post("/users/{id}/enable", handler.enableUser)
	router.Post("/users/{id}/disable", handler.disableUser)
	router.Delete("/users/{id}", handler.removeUser)
	router.Post("/password-reset", handler.passwordReset)

	router.Get("/confirmation", handler.pendingConfirmation)
	router.Post("/confirmation/confirm", handler.confirm)
	router.Post("/confirmation/cancel", handler.cancel)
	router.Post("/confirmation/dismiss", handler.dismiss)

	return router
}

type directoryResponse struct {
	Users   []directory.Entry `json:"users"`
	Summary directory.Summary `json:"summary"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// # Directory

// GET /api/v1/admin/users.
func (handler *AdminHandler) listUsers(writer http.ResponseWriter, request *http.Request) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		entries, err := current.Directory.ListAll(request.Context())
		if err != nil {
			return err
		}
		respond.OK(writer, directoryResponse{Users: entries, Summary: directory.Summarize(entries)})
		return nil
	})
}

// POST /api/v1/admin/users/{id}/enable.
func (handler *AdminHandler) enableUser(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "id")

	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		message, err := current.Directory.SetDisabled(request.Context(), userID, false)
		if err != nil {
			return err
		}
		respond.OK(writer, messageResponse{Message: message})
		return nil
	})
}

// POST /api/v1/admin/users/{id}/disable.
func (handler *AdminHandler) disableUser(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "id")

	handler.ask(writer, request,
		fmt.Sprintf("Disable user %s? They will not be able to sign in.", userID),
		func(ctx context.Context, dir *directory.Directory) (string, error) {
			return dir.SetDisabled(ctx, userID, true)
		},
	)
}

// DELETE /api/v1/admin/users/{id}.
func (handler *AdminHandler) removeUser(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "id")

	handler.ask(writer, request,
		fmt.Sprintf("Delete the profile of user %s? This cannot be undone.", userID),
		func(ctx context.Context, dir *directory.Directory) (string, error) {
			return dir.Remove(ctx, userID)
		},
	)
}

// POST /api/v1/admin/password-reset.
func (handler *AdminHandler) passwordReset(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.ask(writer, request,
		fmt.Sprintf("Send a password reset email to %s?", input.Email),
		func(ctx context.Context, dir *directory.Directory) (string, error) {
			return dir.TriggerPasswordReset(ctx, input.Email)
		},
	)
}

/*
ask registers a confirmation for an administrator.

Description: Non-administrators are refused up front so that no dialog is
shown for an operation the directory would reject anyway.

Response:
  - 202: confirm.Pending
  - 403: FORBIDDEN
*/
func (handler *AdminHandler) ask(
	writer http.ResponseWriter,
	request *http.Request,
	message string,
	operation func(ctx context.Context, dir *directory.Directory) (string, error),
) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		if !current.Profiles.IsAdministrator(request.Context()) {
			return apperr.Forbidden(directory.ForbiddenMessage)
		}

		dir := current.Directory
		pending := current.Confirmations.Request(message, func(ctx context.Context) (string, error) {
			return operation(ctx, dir)
		})
		respond.Accepted(writer, pending)
		return nil
	})
}

// # Confirmation

// GET /api/v1/admin/confirmation.
func (handler *AdminHandler) pendingConfirmation(writer http.ResponseWriter, request *http.Request) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		pending, ok := current.Confirmations.Pending()
		if !ok {
			respond.NoContent(writer)
			return nil
		}
		respond.OK(writer, pending)
		return nil
	})
}

/*
POST /api/v1/admin/confirmation/confirm.

Response:
  - 200: messageResponse from the directory
  - 404: NOT_FOUND when nothing is pending or the target record is gone
*/
func (handler *AdminHandler) confirm(writer http.ResponseWriter, request *http.Request) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		message, err := current.Confirmations.Confirm(request.Context())
		if errors.Is(err, confirm.ErrNothingPending) {
			return apperr.NotFound("Pending confirmation")
		}
		if err != nil {
			return err
		}
		respond.OK(writer, messageResponse{Message: message})
		return nil
	})
}

// POST /api/v1/admin/confirmation/cancel.
func (handler *AdminHandler) cancel(writer http.ResponseWriter, request *http.Request) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		current.Confirmations.Cancel()
		respond.NoContent(writer)
		return nil
	})
}

// POST /api/v1/admin/confirmation/dismiss.
func (handler *AdminHandler) dismiss(writer http.ResponseWriter, request *http.Request) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		current.Confirmations.Dismiss()
		respond.NoContent(writer)
		return nil
	})
}
