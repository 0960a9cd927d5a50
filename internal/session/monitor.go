// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/notify"
	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
)

// Monitor observes the identity provider and publishes accepted sessions.
//
// # Verification gate
//
// A non-anonymous session whose email is not verified is never accepted. The
// monitor terminates it at the provider, raises the fixed verification notice
// and reports nil to [State] and to every listener in its place.
type Monitor struct {
	provider identity.Provider
	state    *State
	notifier notify.Notifier
	recorder metrics.Recorder
	logger   *slog.Logger

	mu          sync.Mutex
	ctx         context.Context
	listeners   []identity.Listener
	unsubscribe func()
}

// NewMonitor wires a monitor. Call [Monitor.Start] after registering listeners.
func NewMonitor(provider identity.Provider, state *State, notifier notify.Notifier, recorder metrics.Recorder, logger *slog.Logger) *Monitor {
	return &Monitor{
		provider: provider,
		state:    state,
		notifier: notifier,
		recorder: metrics.OrNop(recorder),
		logger:   logger,
		ctx:      context.Background(),
	}
}

// OnSessionChanged registers a listener. Listeners run synchronously in
// registration order for every transition, including the initial one.
func (monitor *Monitor) OnSessionChanged(listener identity.Listener) {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	monitor.listeners = append(monitor.listeners, listener)
}

/*
Start subscribes to the provider. The provider replays its current session, so
listeners observe the initial state before Start returns.

Parameters:
  - ctx: Lifetime context of the workspace, used for terminate and notify calls
*/
func (monitor *Monitor) Start(ctx context.Context) {
	monitor.mu.Lock()
	if monitor.unsubscribe != nil {
		monitor.mu.Unlock()
		return
	}
	monitor.ctx = ctx
	monitor.mu.Unlock()

	unsubscribe := monitor.provider.Subscribe(monitor.handle)

	monitor.mu.Lock()
	monitor.unsubscribe = unsubscribe
	monitor.mu.Unlock()
}

// Stop detaches from the provider.
func (monitor *Monitor) Stop() {
	monitor.mu.Lock()
	unsubscribe := monitor.unsubscribe
	monitor.unsubscribe = nil
	monitor.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Current returns the last accepted session, or nil.
func (monitor *Monitor) Current() *identity.Session {
	return monitor.state.Current()
}

func (monitor *Monitor) handle(session *identity.Session) {
	monitor.mu.Lock()
	ctx := monitor.ctx
	monitor.mu.Unlock()

	if session != nil && !session.IsAnonymous && !session.EmailVerified {
		monitor.reject(ctx, session)
		session = nil
	}

	monitor.state.Set(ctx, session)

	monitor.mu.Lock()
	listeners := append([]identity.Listener(nil), monitor.listeners...)
	monitor.mu.Unlock()

	for _, listener := range listeners {
		listener(session)
	}
}

func (monitor *Monitor) reject(ctx context.Context, session *identity.Session) {
	monitor.recorder.RecordVerificationRejected()
	monitor.logger.Info("session_rejected_unverified", slog.String("session_id", session.ID))

	if err := monitor.provider.TerminateSession(ctx); err != nil {
		monitor.logger.Warn("session_terminate_failed",
			slog.String("session_id", session.ID),
			slog.Any("error", err),
		)
	}

	monitor.notifier.Notify(ctx, notify.Warning(apperr.VerificationMessage).WithCode(apperr.CodeVerificationRequired))
}
