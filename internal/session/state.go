// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session tracks which identity is current in a workspace.

[Monitor] subscribes to the identity provider and enforces the email
verification gate. [State] owns the accepted session and clears workspace-local
data whenever the identity behind it goes away.
*/
package session

import (
	"context"
	"sync"

	"github.com/taibuivan/gatekeeper/internal/identity"
)

// ResetHook runs when the current identity is discarded.
type ResetHook func(ctx context.Context)

// State holds the accepted session of one workspace.
//
// The zero value is not ready; create it with [NewState].
type State struct {
	mu          sync.Mutex
	current     *identity.Session
	initialized bool
	hooks       []ResetHook
}

// NewState returns an initialized, signed-out state.
func NewState() *State {
	state := &State{}
	state.Init()
	return state
}

// Init marks the state signed out without running reset hooks.
func (state *State) Init() {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.current = nil
	state.initialized = true
}

// OnReset registers a hook. Hooks run in registration order.
func (state *State) OnReset(hook ResetHook) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.hooks = append(state.hooks, hook)
}

// Current returns the accepted session, or nil when signed out.
func (state *State) Current() *identity.Session {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.current
}

// Initialized reports whether Init has run.
func (state *State) Initialized() bool {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.initialized
}

/*
Set replaces the current session.

Reset hooks run after the swap when the previous identity is discarded: a
session replaced by nil or by a different id, or a fresh anonymous session in a
signed-out workspace. A repeated event for the same id runs nothing.
*/
func (state *State) Set(ctx context.Context, next *identity.Session) {
	state.mu.Lock()
	previous := state.current
	state.current = next
	hooks := state.hooksLocked(requiresReset(previous, next))
	state.mu.Unlock()

	runHooks(ctx, hooks)
}

// Reset signs the state out and always runs the reset hooks.
func (state *State) Reset(ctx context.Context) {
	state.mu.Lock()
	state.current = nil
	hooks := state.hooksLocked(true)
	state.mu.Unlock()

	runHooks(ctx, hooks)
}

func (state *State) hooksLocked(reset bool) []ResetHook {
	if !reset || len(state.hooks) == 0 {
		return nil
	}
	return append([]ResetHook(nil), state.hooks...)
}

func requiresReset(previous, next *identity.Session) bool {
	if previous != nil {
		return next == nil || next.ID != previous.ID
	}
	return next != nil && next.IsAnonymous
}

func runHooks(ctx context.Context, hooks []ResetHook) {
	for _, hook := range hooks {
		hook(ctx)
	}
}
