// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package confirm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gatekeeper/internal/confirm"
)

func effect(name string, calls *[]string) confirm.Effect {
	return func(context.Context) (string, error) {
		*calls = append(*calls, name)
		return name + " done", nil
	}
}

/*
TestWorkflow_ConfirmRunsEffect walks the happy path and records transitions.
*/
func TestWorkflow_ConfirmRunsEffect(t *testing.T) {
	workflow := confirm.New(nil)
	var states []confirm.State
	workflow.OnTransition(func(transition confirm.Transition) { states = append(states, transition.To) })

	var calls []string
	pending := workflow.Request("Delete user u1?", effect("delete", &calls))
	assert.Equal(t, "Delete user u1?", pending.Message)
	assert.Equal(t, confirm.AwaitingConfirmation, workflow.State())

	message, err := workflow.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "delete done", message)
	assert.Equal(t, []string{"delete"}, calls)
	assert.Equal(t, confirm.Idle, workflow.State())
	assert.Equal(t, []confirm.State{confirm.AwaitingConfirmation, confirm.Confirmed, confirm.Idle}, states)

	_, ok := workflow.Pending()
	assert.False(t, ok)
}

/*
TestWorkflow_LastRequestWins never runs a superseded effect.
*/
func TestWorkflow_LastRequestWins(t *testing.T) {
	workflow := confirm.New(nil)
	var calls []string

	workflow.Request("m1", effect("e1", &calls))
	workflow.Request("m2", effect("e2", &calls))

	pending, ok := workflow.Pending()
	require.True(t, ok)
	assert.Equal(t, "m2", pending.Message)

	_, err := workflow.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, calls)

	_, err = workflow.Confirm(context.Background())
	assert.ErrorIs(t, err, confirm.ErrNothingPending)
	assert.Equal(t, []string{"e2"}, calls)
}

/*
TestWorkflow_CancelAndDismiss drop the effect.
*/
func TestWorkflow_CancelAndDismiss(t *testing.T) {
	workflow := confirm.New(nil)
	var calls []string
	var states []confirm.State
	workflow.OnTransition(func(transition confirm.Transition) { states = append(states, transition.To) })

	workflow.Request("m1", effect("e1", &calls))
	assert.True(t, workflow.Cancel())
	assert.Equal(t, confirm.Idle, workflow.State())

	workflow.Request("m2", effect("e2", &calls))
	assert.True(t, workflow.Dismiss())
	assert.False(t, workflow.Dismiss())

	assert.Empty(t, calls)
	assert.Equal(t, []confirm.State{
		confirm.AwaitingConfirmation, confirm.Cancelled, confirm.Idle,
		confirm.AwaitingConfirmation, confirm.Cancelled, confirm.Idle,
	}, states)
}

/*
TestWorkflow_EffectErrorReturnsToIdle surfaces the error and resets.
*/
func TestWorkflow_EffectErrorReturnsToIdle(t *testing.T) {
	workflow := confirm.New(nil)
	workflow.Request("m", func(context.Context) (string, error) {
		return "", errors.New("delete failed: offline")
	})

	_, err := workflow.Confirm(context.Background())
	assert.EqualError(t, err, "delete failed: offline")
	assert.Equal(t, confirm.Idle, workflow.State())
}

/*
TestWorkflow_RequestDuringEffectStaysPending keeps a request made by the effect.
*/
func TestWorkflow_RequestDuringEffectStaysPending(t *testing.T) {
	workflow := confirm.New(nil)
	var calls []string

	workflow.Request("first", func(context.Context) (string, error) {
		workflow.Request("follow-up", effect("second", &calls))
		return "ok", nil
	})

	_, err := workflow.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, confirm.AwaitingConfirmation, workflow.State())

	pending, ok := workflow.Pending()
	require.True(t, ok)
	assert.Equal(t, "follow-up", pending.Message)
}

/*
TestWorkflow_ObserversSeeEveryTransition notifies each observer in registration
order, and an observer added during a notification only sees later transitions.
*/
func TestWorkflow_ObserversSeeEveryTransition(t *testing.T) {
	workflow := confirm.New(nil)
	var seen []string

	workflow.OnTransition(func(transition confirm.Transition) {
		seen = append(seen, "first:"+string(transition.To))
	})
	workflow.OnTransition(func(transition confirm.Transition) {
		seen = append(seen, "second:"+string(transition.To))
		if transition.To == confirm.AwaitingConfirmation && len(seen) == 2 {
			workflow.OnTransition(func(transition confirm.Transition) {
				seen = append(seen, "late:"+string(transition.To))
			})
		}
	})

	workflow.Request("m", func(context.Context) (string, error) { return "ok", nil })
	assert.Equal(t, []string{
		"first:" + string(confirm.AwaitingConfirmation),
		"second:" + string(confirm.AwaitingConfirmation),
	}, seen)

	assert.True(t, workflow.Cancel())
	assert.Equal(t, []string{
		"first:" + string(confirm.AwaitingConfirmation),
		"second:" + string(confirm.AwaitingConfirmation),
		"first:" + string(confirm.Cancelled),
		"second:" + string(confirm.Cancelled),
		"late:" + string(confirm.Cancelled),
		"first:" + string(confirm.Idle),
		"second:" + string(confirm.Idle),
		"late:" + string(confirm.Idle),
	}, seen)
}
