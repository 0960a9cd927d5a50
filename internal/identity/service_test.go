// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gatekeeper/internal/identity"
)

// capturingMailer records the last link sent to each address.
type capturingMailer struct {
	resetLinks  map[string]string
	verifyLinks map[string]string
	err         error
}

func newCapturingMailer() *capturingMailer {
	return &capturingMailer{resetLinks: map[string]string{}, verifyLinks: map[string]string{}}
}

func (mailer *capturingMailer) SendPasswordReset(_ context.Context, email, link string) error {
	mailer.resetLinks[email] = link
	return mailer.err
}

func (mailer *capturingMailer) SendVerification(_ context.Context, email, link string) error {
	mailer.verifyLinks[email] = link
	return mailer.err
}

func tokenOf(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	return parsed.Query().Get("token")
}

type staticGuard struct {
	disabled map[string]bool
	err      error
}

func (guard staticGuard) IsDisabled(_ context.Context, accountID string) (bool, error) {
	return guard.disabled[accountID], guard.err
}

func newService(t *testing.T, mailer identity.Mailer) *identity.Service {
	t.Helper()
	return identity.NewService(
		identity.NewMemoryAccountRepository(),
		identity.NewMemoryTokenRepository(),
		identity.NewMemoryTokenRepository(),
		mailer,
		identity.ServiceOptions{PublicBaseURL: "https://auth.example.com/", AllowAnonymous: true, EmailRatePerMinute: 3},
		slog.Default(),
	)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	providerError, ok := identity.AsProviderError(err)
	require.True(t, ok, "expected provider error, got %v", err)
	assert.Equal(t, code, providerError.Code)
}

/*
TestService_RegisterAndAuthenticate covers the credential error codes.
*/
func TestService_RegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	service := newService(t, newCapturingMailer())

	account, err := service.Register(ctx, "Tai@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tai@example.com", account.Email)
	assert.False(t, account.EmailVerified)

	_, err = service.Register(ctx, "tai@example.com", "secret1")
	assertCode(t, err, identity.CodeEmailAlreadyInUse)

	_, err = service.Register(ctx, "other@example.com", "12345")
	assertCode(t, err, identity.CodeWeakPassword)

	_, err = service.Register(ctx, "not-an-email", "secret1")
	assertCode(t, err, identity.CodeInvalidEmail)

	signedIn, err := service.Authenticate(ctx, "TAI@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, account.ID, signedIn.ID)

	_, err = service.Authenticate(ctx, "tai@example.com", "wrong-pass")
	assertCode(t, err, identity.CodeWrongPassword)

	_, err = service.Authenticate(ctx, "ghost@example.com", "secret1")
	assertCode(t, err, identity.CodeUserNotFound)
}

/*
TestService_FailedSignInsAreThrottled locks an address after repeated wrong passwords.
*/
func TestService_FailedSignInsAreThrottled(t *testing.T) {
	ctx := context.Background()
	service := newService(t, newCapturingMailer())
	_, err := service.Register(ctx, "tai@example.com", "secret1")
	require.NoError(t, err)

	for range identity.FailedSignInBurst {
		_, err = service.Authenticate(ctx, "tai@example.com", "wrong-pass")
		assertCode(t, err, identity.CodeWrongPassword)
	}

	_, err = service.Authenticate(ctx, "tai@example.com", "secret1")
	assertCode(t, err, identity.CodeTooManyRequests)
}

/*
TestService_DisabledAccountsAreRefused consults the account guard.
*/
func TestService_DisabledAccountsAreRefused(t *testing.T) {
	ctx := context.Background()
	service := newService(t, newCapturingMailer())
	account, err := service.Register(ctx, "tai@example.com", "secret1")
	require.NoError(t, err)

	service.SetAccountGuard(staticGuard{disabled: map[string]bool{account.ID: true}})
	_, err = service.Authenticate(ctx, "tai@example.com", "secret1")
	assertCode(t, err, identity.CodeUserDisabled)

	// A failing guard fails open.
	service.SetAccountGuard(staticGuard{err: errors.New("store down")})
	_, err = service.Authenticate(ctx, "tai@example.com", "secret1")
	assert.NoError(t, err)
}

/*
TestService_VerificationFlow mails a link whose token verifies the account once.
*/
func TestService_VerificationFlow(t *testing.T) {
	ctx := context.Background()
	mailer := newCapturingMailer()
	service := newService(t, mailer)
	account, err := service.Register(ctx, "tai@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, service.RequestEmailVerification(ctx, account.ID))
	link := mailer.verifyLinks["tai@example.com"]
	assert.Contains(t, link, "https://auth.example.com/api/v1/identity/verify-email?token=")

	token := tokenOf(t, link)
	require.NoError(t, service.VerifyEmail(ctx, token))

	signedIn, err := service.Authenticate(ctx, "tai@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, signedIn.EmailVerified)

	assertCode(t, service.VerifyEmail(ctx, token), identity.CodeInvalidActionCode)
}

/*
TestService_PasswordResetFlow replaces the password through the mailed token.
*/
func TestService_PasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	mailer := newCapturingMailer()
	service := newService(t, mailer)
	_, err := service.Register(ctx, "tai@example.com", "secret1")
	require.NoError(t, err)

	assertCode(t, service.RequestPasswordReset(ctx, "ghost@example.com"), identity.CodeUserNotFound)
	assertCode(t, service.RequestPasswordReset(ctx, "bad@"), identity.CodeInvalidEmail)

	require.NoError(t, service.RequestPasswordReset(ctx, "tai@example.com"))
	token := tokenOf(t, mailer.resetLinks["tai@example.com"])

	assertCode(t, service.ResetPassword(ctx, token, "123"), identity.CodeWeakPassword)
	require.NoError(t, service.ResetPassword(ctx, token, "brand-new"))

	_, err = service.Authenticate(ctx, "tai@example.com", "brand-new")
	assert.NoError(t, err)
	assertCode(t, service.ResetPassword(ctx, token, "again-new"), identity.CodeInvalidActionCode)
}

/*
TestService_EmailsAreRateLimited answers too-many-requests past the per-address budget.
*/
func TestService_EmailsAreRateLimited(t *testing.T) {
	ctx := context.Background()
	service := newService(t, newCapturingMailer())
	_, err := service.Register(ctx, "tai@example.com", "secret1")
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, service.RequestPasswordReset(ctx, "tai@example.com"))
	}
	assertCode(t, service.RequestPasswordReset(ctx, "tai@example.com"), identity.CodeTooManyRequests)
}

/*
TestService_MailerFailure surfaces as network-request-failed.
*/
func TestService_MailerFailure(t *testing.T) {
	ctx := context.Background()
	mailer := newCapturingMailer()
	mailer.err = errors.New("smtp timeout")
	service := newService(t, mailer)
	_, err := service.Register(ctx, "tai@example.com", "secret1")
	require.NoError(t, err)

	err = service.RequestPasswordReset(ctx, "tai@example.com")
	assertCode(t, err, identity.CodeNetworkRequestFailed)
	assert.Contains(t, err.Error(), "smtp timeout")
}

/*
TestService_AnonymousSessions honors the AllowAnonymous switch.
*/
func TestService_AnonymousSessions(t *testing.T) {
	service := newService(t, newCapturingMailer())
	session, err := service.NewAnonymousSession()
	require.NoError(t, err)
	assert.True(t, session.IsAnonymous)
	assert.NotEmpty(t, session.ID)

	closed := identity.NewService(
		identity.NewMemoryAccountRepository(),
		identity.NewMemoryTokenRepository(),
		identity.NewMemoryTokenRepository(),
		newCapturingMailer(),
		identity.ServiceOptions{AllowAnonymous: false},
		slog.Default(),
	)
	_, err = closed.NewAnonymousSession()
	assertCode(t, err, identity.CodeOperationNotAllowed)
}
