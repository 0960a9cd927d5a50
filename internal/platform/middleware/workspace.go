// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/constants"
	"github.com/taibuivan/gatekeeper/internal/platform/ctxutil"
	"github.com/taibuivan/gatekeeper/internal/platform/respond"
	"github.com/taibuivan/gatekeeper/internal/platform/sec"
	"github.com/taibuivan/gatekeeper/pkg/uuid"
)

// WorkspaceTokens defines the signing behavior needed by [Workspace].
//
// Defining it here keeps the middleware testable without a real secret.
type WorkspaceTokens interface {
	GenerateWorkspaceToken(workspaceID string, timeToLive time.Duration) (string, error)
	VerifyWorkspaceToken(tokenString string) (*sec.WorkspaceClaims, error)
}

/*
Workspace binds every request to a browser workspace.

Flow:
 1. Read the signed workspace cookie.
 2. If it verifies, reuse its workspace id.
 3. Otherwise start a fresh workspace and set a new cookie.
 4. Inject the id into the context and the request logger.

Parameters:
  - tokens: Signs and verifies the cookie value
  - secureCookie: Sets the Secure attribute (production)
*/
func Workspace(tokens WorkspaceTokens, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			workspaceID := ""
			if cookie, err := request.Cookie(constants.WorkspaceCookieName); err == nil {
				if claims, err := tokens.VerifyWorkspaceToken(cookie.Value); err == nil {
					workspaceID = claims.WorkspaceID
				}
			}

			if workspaceID == "" {
				workspaceID = uuid.New()
				signed, err := tokens.GenerateWorkspaceToken(workspaceID, constants.WorkspaceTokenTTL)
				if err != nil {
					respond.Error(writer, request, apperr.Internal(err))
					return
				}

				http.SetCookie(writer, &http.Cookie{
					Name:     constants.WorkspaceCookieName,
					Value:    signed,
					Path:     constants.WorkspaceCookiePath,
					MaxAge:   int(constants.WorkspaceTokenTTL.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if recorder, ok := writer.(*statusRecorder); ok {
				recorder.workspaceID = workspaceID
			}

			ctx := ctxutil.WithWorkspaceID(request.Context(), workspaceID)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("workspace_id", workspaceID)))

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}
