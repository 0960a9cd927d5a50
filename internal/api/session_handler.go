// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gatekeeper/internal/access"
	"github.com/taibuivan/gatekeeper/internal/identity"
	requestutil "github.com/taibuivan/gatekeeper/internal/platform/request"
	"github.com/taibuivan/gatekeeper/internal/platform/respond"
	"github.com/taibuivan/gatekeeper/internal/users/auth"
	"github.com/taibuivan/gatekeeper/internal/users/profile"
	"github.com/taibuivan/gatekeeper/internal/workspace"
)

// SessionHandler serves the session state and the authentication flows.
type SessionHandler struct {
	workspaces workspaces
}

// NewSessionHandler constructs a [SessionHandler].
func NewSessionHandler(registry *workspace.Registry) *SessionHandler {
	return &SessionHandler{workspaces: workspaces{registry: registry}}
}

// Routes returns a [chi.Router] configured with the session endpoints.
//
// # Endpoints
//   - GET  /                     : Current session, access view and header.
//   - POST /sign-in              : Email and password sign-in.
//   - POST /sign-up              : Registration; stays signed out until verified.
//   - POST /anonymous            : Guest session.
//   - POST /password-reset       : Forgot-password email.
//   - POST /resend-verification  : New verification email.
//   - POST /sign-out             : Ends the session.
//   - GET  /notifications        : Drains pending notifications.
func (handler *SessionHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.getSession)
	router.Post("/sign-in", handler.signIn)
	router.Post("/sign-up", handler.signUp)
	router.Post("/anonymous", handler.anonymous)
	router.Post("/password-reset", handler.passwordReset)
	router.Post("/resend-verification", handler.resendVerification)
	router.Post("/sign-out", handler.signOut)
	router.Get("/notifications", handler.notifications)

	return router
}

// # Payloads

type sessionResponse struct {
	Session *identity.Session `json:"session"`
	View    access.Snapshot   `json:"view"`
	Header  *profile.Identity `json:"header,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// # Endpoints

/*
GET /api/v1/session.

Response:
  - 200: sessionResponse (session is null when signed out)
*/
func (handler *SessionHandler) getSession(writer http.ResponseWriter, request *http.Request) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		respond.OK(writer, sessionResponse{
			Session: current.Monitor.Current(),
			View:    current.View.Snapshot(),
			Header:  current.Header(),
		})
		return nil
	})
}

/*
POST /api/v1/session/sign-in.

Response:
  - 200: Outcome with the accepted session
  - 403: VERIFICATION_REQUIRED (resend is available)
  - 422: PROVIDER_ERROR with a friendly message
*/
func (handler *SessionHandler) signIn(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		return writeOutcome(writer)(current.Flows.SignIn(request.Context(), input.Email, input.Password))
	})
}

// POST /api/v1/session/sign-up.
func (handler *SessionHandler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input signUpRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		return writeOutcome(writer)(current.Flows.SignUp(request.Context(), input.Email, input.Password, input.Nickname))
	})
}

// POST /api/v1/session/anonymous.
func (handler *SessionHandler) anonymous(writer http.ResponseWriter, request *http.Request) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		return writeOutcome(writer)(current.Flows.SignInAnonymously(request.Context()))
	})
}

// POST /api/v1/session/password-reset.
func (handler *SessionHandler) passwordReset(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		return writeOutcome(writer)(current.Flows.SendPasswordReset(request.Context(), input.Email))
	})
}

// POST /api/v1/session/resend-verification.
func (handler *SessionHandler) resendVerification(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		return writeOutcome(writer)(current.Flows.ResendVerification(request.Context(), input.Email, input.Password))
	})
}

// POST /api/v1/session/sign-out.
func (handler *SessionHandler) signOut(writer http.ResponseWriter, request *http.Request) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		return writeOutcome(writer)(current.Flows.SignOut(request.Context()))
	})
}

/*
GET /api/v1/session/notifications.

Description: Returns and forgets every notification raised since the last call.
*/
func (handler *SessionHandler) notifications(writer http.ResponseWriter, request *http.Request) {
	handler.workspaces.run(writer, request, func(current *workspace.Workspace) error {
		respond.OK(writer, current.Notifications.Drain())
		return nil
	})
}

// writeOutcome renders a flow result, carrying its warning when present.
func writeOutcome(writer http.ResponseWriter) func(auth.Outcome, error) error {
	return func(outcome auth.Outcome, err error) error {
		if err != nil {
			return err
		}
		if outcome.Warning != "" {
			respond.OKWithWarning(writer, outcome, outcome.Warning)
			return nil
		}
		respond.OK(writer, outcome)
		return nil
	}
}
