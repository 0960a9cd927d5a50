// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access decides whether application content is visible for a session.

The decision is recomputed on every session transition and never cached.
*/
package access

import (
	"sync"

	"github.com/taibuivan/gatekeeper/internal/identity"
)

// Decision is the outcome of the access gate.
type Decision int

const (
	// LoginRequired hides the content and forces the login surface.
	LoginRequired Decision = iota
	// Visible shows the content.
	Visible
)

func (decision Decision) String() string {
	if decision == Visible {
		return "visible"
	}
	return "login_required"
}

// Decide maps a session to a decision. Any non-nil session the monitor
// accepted is allowed, anonymous ones included.
func Decide(session *identity.Session) Decision {
	if session == nil {
		return LoginRequired
	}
	return Visible
}

// Presenter renders a decision.
type Presenter interface {
	ShowForcedLogin()
	ShowContent()
	// RefreshProfile reloads the displayed profile after content becomes visible.
	RefreshProfile()
}

// SessionSource is the subset of the session monitor the gate attaches to.
type SessionSource interface {
	OnSessionChanged(listener identity.Listener)
}

// Gate evaluates decisions and signals a presenter.
type Gate struct {
	presenter Presenter
}

// NewGate creates a gate signalling presenter.
func NewGate(presenter Presenter) *Gate {
	return &Gate{presenter: presenter}
}

// Evaluate decides for session and signals the presenter synchronously.
func (gate *Gate) Evaluate(session *identity.Session) Decision {
	decision := Decide(session)

	switch decision {
	case Visible:
		gate.presenter.ShowContent()
		gate.presenter.RefreshProfile()
	default:
		gate.presenter.ShowForcedLogin()
	}
	return decision
}

// Attach re-evaluates the gate on every transition of source.
func (gate *Gate) Attach(source SessionSource) {
	source.OnSessionChanged(func(session *identity.Session) {
		gate.Evaluate(session)
	})
}

// # View

// Snapshot is the visible state of the content and login surfaces.
type Snapshot struct {
	ContentVisible bool `json:"content_visible"`
	LoginForced    bool `json:"login_forced"`
	// ProfileRevision counts profile refresh requests since the workspace started.
	ProfileRevision int `json:"profile_revision"`
}

// View is a [Presenter] that remembers what the browser would show.
type View struct {
	mu       sync.Mutex
	snapshot Snapshot
	onReload func()
}

// NewView starts with the login surface forced.
func NewView() *View {
	return &View{snapshot: Snapshot{LoginForced: true}}
}

// OnRefreshProfile registers the action run when a profile refresh is requested.
func (view *View) OnRefreshProfile(reload func()) {
	view.mu.Lock()
	defer view.mu.Unlock()
	view.onReload = reload
}

func (view *View) ShowForcedLogin() {
	view.mu.Lock()
	defer view.mu.Unlock()
	view.snapshot.ContentVisible = false
	view.snapshot.LoginForced = true
}

func (view *View) ShowContent() {
	view.mu.Lock()
	defer view.mu.Unlock()
	view.snapshot.ContentVisible = true
	view.snapshot.LoginForced = false
}

func (view *View) RefreshProfile() {
	view.mu.Lock()
	view.snapshot.ProfileRevision++
	reload := view.onReload
	view.mu.Unlock()

	if reload != nil {
		reload()
	}
}

// Snapshot returns the current state.
func (view *View) Snapshot() Snapshot {
	view.mu.Lock()
	defer view.mu.Unlock()
	return view.snapshot
}
