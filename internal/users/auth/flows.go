// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user-facing authentication flows of a workspace:
sign-in, sign-up, guest sign-in, forgot password, resending the verification
email and sign-out.

Each flow talks to the identity provider and translates its error codes into
the friendly messages of [FriendlyMessage]. The session monitor stays the
only component that decides which session is current.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/notify"
	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/validate"
	"github.com/taibuivan/gatekeeper/internal/users/profile"
)

// ProfileSeeder is the part of the profile store the flows use.
type ProfileSeeder interface {
	Seed(ctx context.Context, session *identity.Session, nickname string, administrator bool) error
	ClearLocal(ctx context.Context) error
}

// Outcome is the result of a flow that succeeded, possibly with a caveat.
type Outcome struct {
	Message string            `json:"message"`
	Warning string            `json:"warning,omitempty"`
	Session *identity.Session `json:"session,omitempty"`
}

// Flows runs the authentication flows of one workspace.
type Flows struct {
	provider     identity.Provider
	profiles     ProfileSeeder
	notifier     notify.Notifier
	isAdminEmail func(email string) bool
	logger       *slog.Logger
}

// NewFlows wires the flows. isAdminEmail may be nil.
func NewFlows(provider identity.Provider, profiles ProfileSeeder, notifier notify.Notifier, isAdminEmail func(string) bool, logger *slog.Logger) *Flows {
	if isAdminEmail == nil {
		isAdminEmail = func(string) bool { return false }
	}
	return &Flows{
		provider:     provider,
		profiles:     profiles,
		notifier:     notifier,
		isAdminEmail: isAdminEmail,
		logger:       logger,
	}
}

// # Sign-in

/*
SignIn authenticates with email and password.

Description: An unverified account is rejected by the session monitor as soon
as the provider reports it; SignIn then answers VERIFICATION_REQUIRED so the
caller can offer to resend the verification email.

Returns:
  - Outcome: Contains the accepted session
  - error: VALIDATION_ERROR, VERIFICATION_REQUIRED, PROVIDER_ERROR or NETWORK_FAILURE
*/
func (flows *Flows) SignIn(ctx context.Context, email, password string) (Outcome, error) {
	v := &validate.Validator{}
	v.Required("email", email).Required("password", password)
	if err := v.Err(); err != nil {
		return Outcome{}, err
	}

	session, err := flows.provider.Authenticate(ctx, email, password)
	if err != nil {
		flows.logger.Info("auth_sign_in_failed", slog.Any("error", err))
		return Outcome{}, translate(FlowSignIn, err)
	}

	if !session.EmailVerified {
		return Outcome{}, apperr.VerificationRequired()
	}

	flows.logger.Info("auth_sign_in_succeeded", slog.String("session_id", session.ID))
	return Outcome{Message: "Signed in successfully.", Session: session}, nil
}

// # Sign-up

/*
SignUp registers an account, seeds its profile and sends the verification email.

Description: The workspace stays signed out. A failed verification email is a
warning, not a failure: the account exists and the user can resend later.
An address already in use raises an info notification suggesting sign-in.

Parameters:
  - ctx: context.Context
  - email, password: string
  - nickname: string (optional, at most 20 characters)

Returns:
  - Outcome: Message, plus Warning when the verification email could not be sent
  - error: VALIDATION_ERROR, PROVIDER_ERROR or NETWORK_FAILURE
*/
func (flows *Flows) SignUp(ctx context.Context, email, password, nickname string) (Outcome, error) {
	nickname = profile.NormalizeNickname(nickname)
	if err := profile.Validate(profile.Profile{Nickname: nickname}); err != nil {
		return Outcome{}, err
	}

	session, err := flows.provider.Register(ctx, email, password)
	if err != nil {
		if identity.HasCode(err, identity.CodeEmailAlreadyInUse) {
			flows.notifier.Notify(ctx, notify.Info(
				fmt.Sprintf("The email %s is already registered. Switched to sign-in.", email),
			).WithCode(identity.CodeEmailAlreadyInUse))
		}
		return Outcome{}, translate(FlowSignUp, err)
	}

	outcome := Outcome{
		Message: fmt.Sprintf("Sign-up successful! A verification email has been sent to %s. Open the link in it, then sign in.", session.Email),
	}

	if err := flows.profiles.Seed(ctx, session, nickname, flows.isAdminEmail(session.Email)); err != nil {
		flows.logger.Warn("auth_profile_seed_failed",
			slog.String("session_id", session.ID),
			slog.Any("error", err),
		)
	}

	if err := flows.provider.RequestEmailVerification(ctx, session); err != nil {
		flows.logger.Warn("auth_verification_email_failed",
			slog.String("session_id", session.ID),
			slog.Any("error", err),
		)
		outcome.Message = "Sign-up successful."
		outcome.Warning = "Sign-up succeeded, but the verification email could not be sent. Sign in later to resend it."
		flows.notifier.Notify(ctx, notify.Warning(outcome.Warning))
	}

	flows.logger.Info("auth_sign_up_succeeded", slog.String("session_id", session.ID))
	return outcome, nil
}

// # Verification

/*
ResendVerification signs in temporarily, sends a new verification email and
leaves the workspace signed out.

Returns:
  - Outcome: Success message
  - error: PROVIDER_ERROR or NETWORK_FAILURE with the resend flow's messages
*/
func (flows *Flows) ResendVerification(ctx context.Context, email, password string) (Outcome, error) {
	session, err := flows.provider.Authenticate(ctx, email, password)
	if err != nil {
		return Outcome{}, translate(FlowResendVerification, err)
	}

	sendErr := flows.provider.RequestEmailVerification(ctx, session)

	if err := flows.provider.TerminateSession(ctx); err != nil {
		flows.logger.Warn("auth_resend_sign_out_failed", slog.Any("error", err))
	}

	if sendErr != nil {
		return Outcome{}, translate(FlowResendVerification, sendErr)
	}
	return Outcome{Message: "The verification email has been sent again. Please check your inbox."}, nil
}

// # Guest

// SignInAnonymously starts a guest session. The local profile mirror is
// cleared by the session state when the guest identity is accepted.
func (flows *Flows) SignInAnonymously(ctx context.Context) (Outcome, error) {
	session, err := flows.provider.BeginAnonymousSession(ctx)
	if err != nil {
		return Outcome{}, translate(FlowAnonymous, err)
	}

	flows.logger.Info("auth_anonymous_sign_in", slog.String("session_id", session.ID))
	return Outcome{Message: "Signed in anonymously. Welcome!", Session: session}, nil
}

// # Password

// SendPasswordReset mails a reset link to a signed-out user.
func (flows *Flows) SendPasswordReset(ctx context.Context, email string) (Outcome, error) {
	v := &validate.Validator{}
	v.Custom("email", email == "", "Please enter an email address")
	if err := v.Err(); err != nil {
		return Outcome{}, err
	}

	if err := flows.provider.RequestPasswordReset(ctx, email); err != nil {
		return Outcome{}, translate(FlowPasswordReset, err)
	}
	return Outcome{Message: "A password reset email has been sent. Please check your inbox."}, nil
}

// # Sign-out

// SignOut ends the session and clears the local profile mirror, even when the
// workspace was already signed out.
func (flows *Flows) SignOut(ctx context.Context) (Outcome, error) {
	if err := flows.provider.TerminateSession(ctx); err != nil {
		return Outcome{}, translate(FlowSignOut, err)
	}

	if err := flows.profiles.ClearLocal(ctx); err != nil {
		return Outcome{Message: "Signed out.", Warning: "The local profile copy could not be cleared."}, nil
	}
	return Outcome{Message: "Signed out."}, nil
}
