// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	requestutil "github.com/taibuivan/gatekeeper/internal/platform/request"
	"github.com/taibuivan/gatekeeper/internal/platform/respond"
	"github.com/taibuivan/gatekeeper/internal/platform/validate"
)

// # Definitions & Constructors

// Handler serves the action links the identity backend sends by email.
//
// # Scope
//
// These endpoints are reached from a mail client, not from a workspace, so
// they never touch a current session.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the action-link routes.
//
// # Endpoints
//   - GET  /verify-email?token=  : Confirms an email address from the mailed link.
//   - POST /verify-email         : Same, with a JSON body.
//   - POST /reset-password       : Sets a new password with a reset token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/verify-email", handler.verifyEmailLink)
	router.Post("/verify-email", handler.verifyEmail)
	router.Post("/reset-password", handler.resetPassword)

	return router
}

// # Request Payloads

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

/*
verifyEmailLink handles the link clicked in the verification email.

GET /api/v1/identity/verify-email?token=

Response:
  - 200: Confirmation message
  - 422: PROVIDER_ERROR (invalid-action-code)
*/
func (handler *Handler) verifyEmailLink(writer http.ResponseWriter, request *http.Request) {
	handler.confirmEmail(writer, request, request.URL.Query().Get("token"))
}

/*
verifyEmail confirms an address with a token posted by a client.

POST /api/v1/identity/verify-email
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input verifyEmailRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.confirmEmail(writer, request, input.Token)
}

func (handler *Handler) confirmEmail(writer http.ResponseWriter, request *http.Request, token string) {
	validator := &validate.Validator{}
	if err := validator.Required("token", token).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.VerifyEmail(request.Context(), token); err != nil {
		respond.Error(writer, request, actionError(err))
		return
	}

	respond.OK(writer, map[string]string{"message": "Your email address has been verified. You can now sign in."})
}

/*
resetPassword completes the forgot-password flow.

POST /api/v1/identity/reset-password

Request:
  - Body: resetPasswordRequest (Token, Password)

Response:
  - 200: Confirmation message
  - 400: VALIDATION_ERROR
  - 422: PROVIDER_ERROR (invalid-action-code, weak-password)
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.Required("token", input.Token).Required("password", input.Password).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, actionError(err))
		return
	}

	respond.OK(writer, map[string]string{"message": "Your password has been changed. You can now sign in."})
}

// actionError maps backend failures of the action endpoints to AppErrors.
func actionError(err error) error {
	providerError, ok := AsProviderError(err)
	if !ok {
		return apperr.Internal(err)
	}

	switch providerError.Code {
	case CodeInvalidActionCode:
		return apperr.Provider(providerError.Code, "This link is invalid or has expired. Please request a new one.", err)
	case CodeWeakPassword:
		return apperr.Provider(providerError.Code, providerError.Message, err)
	case CodeNetworkRequestFailed:
		return apperr.Network("The identity service is unavailable. Please try again later.", err)
	default:
		return apperr.Provider(providerError.Code, providerError.Message, err)
	}
}
