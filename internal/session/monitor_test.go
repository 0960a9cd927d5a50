// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/notify"
	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
	"github.com/taibuivan/gatekeeper/internal/session"
)

// # Fixtures

// scriptedProvider lets a test emit arbitrary sessions.
type scriptedProvider struct {
	identity.Provider

	listeners    []identity.Listener
	terminations int
	terminateErr error
}

func (provider *scriptedProvider) Subscribe(listener identity.Listener) func() {
	provider.listeners = append(provider.listeners, listener)
	listener(nil)
	return func() { provider.listeners = nil }
}

func (provider *scriptedProvider) TerminateSession(context.Context) error {
	provider.terminations++
	return provider.terminateErr
}

func (provider *scriptedProvider) emit(session *identity.Session) {
	for _, listener := range provider.listeners {
		listener(session)
	}
}

func describe(session *identity.Session) string {
	if session == nil {
		return "nil"
	}
	return session.ID
}

func newMonitor(provider identity.Provider, notifier notify.Notifier, recorder metrics.Recorder) (*session.Monitor, *[]string) {
	monitor := session.NewMonitor(provider, session.NewState(), notifier, recorder, slog.Default())
	var seen []string
	monitor.OnSessionChanged(func(current *identity.Session) { seen = append(seen, describe(current)) })
	return monitor, &seen
}

// # Tests

/*
TestMonitor_RejectsUnverifiedSession runs the verification gate against a
scripted provider.
*/
func TestMonitor_RejectsUnverifiedSession(t *testing.T) {
	provider := &scriptedProvider{}
	notes := &notify.Recorder{}
	registry := prometheus.NewRegistry()
	monitor, seen := newMonitor(provider, notes, metrics.NewCollector(registry))
	monitor.Start(context.Background())

	provider.emit(&identity.Session{ID: "u1", Email: "a@example.com"})

	assert.Equal(t, 1, provider.terminations)
	assert.Nil(t, monitor.Current())
	assert.Equal(t, []string{"nil", "nil"}, *seen)
	assert.Equal(t, []string{apperr.VerificationMessage}, notes.Messages())
	assert.Equal(t, apperr.CodeVerificationRequired, notes.All()[0].Code)
	assert.Equal(t, notify.KindWarning, notes.All()[0].Kind)

	count, err := testutil.GatherAndCount(registry, "gatekeeper_verification_rejections_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

/*
TestMonitor_TerminateFailureStillRejects keeps the local rejection when the
provider cannot sign out.
*/
func TestMonitor_TerminateFailureStillRejects(t *testing.T) {
	provider := &scriptedProvider{terminateErr: errors.New("offline")}
	notes := &notify.Recorder{}
	monitor, seen := newMonitor(provider, notes, nil)
	monitor.Start(context.Background())

	provider.emit(&identity.Session{ID: "u1"})

	assert.Nil(t, monitor.Current())
	assert.Equal(t, "nil", (*seen)[len(*seen)-1])
	assert.Len(t, notes.Messages(), 1)
}

/*
TestMonitor_AcceptsVerifiedAndAnonymous passes both kinds through unchanged.
*/
func TestMonitor_AcceptsVerifiedAndAnonymous(t *testing.T) {
	provider := &scriptedProvider{}
	notes := &notify.Recorder{}
	monitor, seen := newMonitor(provider, notes, nil)
	monitor.Start(context.Background())

	provider.emit(&identity.Session{ID: "guest", IsAnonymous: true})
	assert.Equal(t, "guest", describe(monitor.Current()))

	provider.emit(&identity.Session{ID: "member", EmailVerified: true})
	assert.Equal(t, "member", describe(monitor.Current()))

	assert.Equal(t, []string{"nil", "guest", "member"}, *seen)
	assert.Zero(t, provider.terminations)
	assert.Empty(t, notes.Messages())
}

/*
TestMonitor_ListenersRunInRegistrationOrder checks FIFO delivery.
*/
func TestMonitor_ListenersRunInRegistrationOrder(t *testing.T) {
	provider := &scriptedProvider{}
	monitor := session.NewMonitor(provider, session.NewState(), &notify.Recorder{}, nil, slog.Default())

	var order []string
	monitor.OnSessionChanged(func(*identity.Session) { order = append(order, "first") })
	monitor.OnSessionChanged(func(*identity.Session) { order = append(order, "second") })
	monitor.Start(context.Background())

	assert.Equal(t, []string{"first", "second"}, order)

	monitor.Stop()
	provider.emit(&identity.Session{ID: "ignored", EmailVerified: true})
	assert.Len(t, order, 2)
}

/*
TestMonitor_WithIdentityClient runs the gate end to end: an unverified account
signs in, gets rejected, and the provider ends up signed out.
*/
func TestMonitor_WithIdentityClient(t *testing.T) {
	service := identity.NewService(
		identity.NewMemoryAccountRepository(),
		identity.NewMemoryTokenRepository(),
		identity.NewMemoryTokenRepository(),
		identity.NewLogMailer(slog.Default()),
		identity.ServiceOptions{PublicBaseURL: "http://localhost", AllowAnonymous: true, EmailRatePerMinute: 5},
		slog.Default(),
	)
	client := identity.NewClient(service)

	ctx := context.Background()
	_, err := client.Register(ctx, "new@example.com", "secret-pass")
	require.NoError(t, err)

	notes := &notify.Recorder{}
	monitor, seen := newMonitor(client, notes, nil)
	monitor.Start(ctx)

	rejected, err := client.Authenticate(ctx, "new@example.com", "secret-pass")
	require.NoError(t, err)
	assert.False(t, rejected.EmailVerified)

	assert.Nil(t, monitor.Current())
	assert.Nil(t, client.Current())
	assert.Equal(t, []string{"nil", "nil", "nil"}, *seen)
	assert.Equal(t, []string{apperr.VerificationMessage}, notes.Messages())
}
