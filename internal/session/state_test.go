// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/session"
)

/*
TestState_ResetHooks covers which transitions discard workspace-local data.
*/
func TestState_ResetHooks(t *testing.T) {
	member := &identity.Session{ID: "member", EmailVerified: true}
	guest := &identity.Session{ID: "guest", IsAnonymous: true}
	otherGuest := &identity.Session{ID: "guest-2", IsAnonymous: true}

	tests := []struct {
		name      string
		previous  *identity.Session
		next      *identity.Session
		wantReset bool
	}{
		{"sign out", member, nil, true},
		{"switch to anonymous", member, guest, true},
		{"new anonymous session from signed out", nil, guest, true},
		{"different anonymous session", guest, otherGuest, true},
		{"same session again", member, member, false},
		{"sign in from signed out", nil, member, false},
		{"signed out twice", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := session.NewState()
			state.Set(context.Background(), tt.previous)

			resets := 0
			state.OnReset(func(context.Context) { resets++ })
			state.Set(context.Background(), tt.next)

			assert.Equal(t, tt.wantReset, resets == 1)
			assert.Equal(t, tt.next, state.Current())
		})
	}
}

/*
TestState_ResetAlwaysRunsHooks checks the explicit reset used on workspace teardown.
*/
func TestState_ResetAlwaysRunsHooks(t *testing.T) {
	state := session.NewState()
	assert.True(t, state.Initialized())

	var order []string
	state.OnReset(func(context.Context) { order = append(order, "cache") })
	state.OnReset(func(context.Context) { order = append(order, "view") })

	state.Reset(context.Background())

	assert.Nil(t, state.Current())
	assert.Equal(t, []string{"cache", "view"}, order)
}

/*
TestState_HookMayReadState makes sure hooks run outside the lock.
*/
func TestState_HookMayReadState(t *testing.T) {
	state := session.NewState()
	state.Set(context.Background(), &identity.Session{ID: "member", EmailVerified: true})

	var seen *identity.Session
	state.OnReset(func(context.Context) { seen = state.Current() })
	state.Set(context.Background(), nil)

	assert.Nil(t, seen)
}
