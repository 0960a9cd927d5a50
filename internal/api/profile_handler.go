// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	requestutil "github.com/taibuivan/gatekeeper/internal/platform/request"
	"github.com/taibuivan/gatekeeper/internal/platform/respond"
	"github.com/taibuivan/gatekeeper/internal/users/profile"
	"github.com/taibuivan/gatekeeper/internal/workspace"
)

// ProfileHandler serves the profile of the workspace's current session.
type ProfileHandler struct {
	workspaces workspaces
}

// NewProfileHandler constructs a [ProfileHandler].
func NewProfileHandler(registry *workspace.Registry) *ProfileHandler {
	return &ProfileHandler{workspaces: workspaces{registry: registry}}
}

// Routes returns a [chi.Router] configured with the profile endpoints.
func (handler *ProfileHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.getProfile)
	router.Put("/", handler.saveProfile)

	return router
}

type profileResponse struct {
	Profile profile.Profile  `json:"profile"`
	Display profile.Identity `json:"display"`
}

type saveProfileRequest struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

/*
GET /api/v1/profile.

Response:
  - 200: profileResponse (never fails; falls back to the local copy, then defaults)
*/
func (handler *ProfileHandler) getProfile(writer http.ResponseWriter, request *http.Request) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		respond.OK(writer, profileResponse{
			Profile: current.Profiles.Get(request.Context()),
			Display: current.Profiles.Display(request.Context()),
		})
		return nil
	})
}

/*
PUT /api/v1/profile.

Response:
  - 200: Saved profile; a "warning" is set when only the local copy was written
  - 400: VALIDATION_ERROR (nickname longer than 20 characters)
*/
func (handler *ProfileHandler) saveProfile(writer http.ResponseWriter, request *http.Request) {
	var input saveProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		saved, err := current.Profiles.Save(request.Context(), profile.Profile{Nickname: input.Nickname, Avatar: input.Avatar})

		var appError *apperr.AppError
		if errors.As(err, &appError) && appError.Partial {
			respond.OKWithWarning(writer, saved, appError.Message)
			return nil
		}
		if err != nil {
			return err
		}

		respond.OK(writer, saved)
		return nil
	})
}
