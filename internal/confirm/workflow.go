// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package confirm guards destructive administrator actions behind an explicit
confirmation step.

	Idle -> AwaitingConfirmation -> Confirmed | Cancelled -> Idle

At most one confirmation is outstanding. A new request replaces the pending
one, whose effect is then never run.
*/
package confirm

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
)

// State is a workflow state.
type State string

const (
	Idle                 State = "idle"
	AwaitingConfirmation State = "awaiting_confirmation"
	Confirmed            State = "confirmed"
	Cancelled            State = "cancelled"
)

// ErrNothingPending is returned by Confirm when no request is outstanding.
var ErrNothingPending = errors.New("confirm: nothing pending")

// Effect is the mutation run once confirmed. It returns the message shown to the user.
type Effect func(ctx context.Context) (string, error)

// Transition is one observed state change.
type Transition struct {
	From    State
	To      State
	Message string
}

// Pending describes the outstanding request.
type Pending struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
}

// Outcome labels recorded per finished request.
const (
	OutcomeConfirmed  = "confirmed"
	OutcomeCancelled  = "cancelled"
	OutcomeSuperseded = "superseded"
)

// Workflow is the confirmation state machine of one workspace.
type Workflow struct {
	mu       sync.Mutex
	state    State
	pending  *request
	nextID   int
	observer []func(Transition)
	recorder metrics.Recorder
}

type request struct {
	id      int
	message string
	effect  Effect
}

// New returns an idle workflow.
func New(recorder metrics.Recorder) *Workflow {
	return &Workflow{state: Idle, recorder: metrics.OrNop(recorder)}
}

// OnTransition registers an observer. Observers run synchronously, outside the lock.
func (workflow *Workflow) OnTransition(observer func(Transition)) {
	workflow.mu.Lock()
	defer workflow.mu.Unlock()
	workflow.observer = append(workflow.observer, observer)
}

// State returns the current state.
func (workflow *Workflow) State() State {
	workflow.mu.Lock()
	defer workflow.mu.Unlock()
	return workflow.state
}

// Pending returns the outstanding request, if any.
func (workflow *Workflow) Pending() (Pending, bool) {
	workflow.mu.Lock()
	defer workflow.mu.Unlock()
	if workflow.pending == nil {
		return Pending{}, false
	}
	return Pending{ID: workflow.pending.id, Message: workflow.pending.message}, true
}

/*
Request presents message and holds effect until the user answers.

Returns:
  - Pending: The new outstanding request
*/
func (workflow *Workflow) Request(message string, effect Effect) Pending {
	workflow.mu.Lock()
	superseded := workflow.pending != nil
	previous := workflow.state

	workflow.nextID++
	workflow.pending = &request{id: workflow.nextID, message: message, effect: effect}
	workflow.state = AwaitingConfirmation
	pending := Pending{ID: workflow.nextID, Message: message}
	observers := workflow.observersLocked()
	workflow.mu.Unlock()

	if superseded {
		workflow.recorder.RecordConfirmation(OutcomeSuperseded)
	}
	notify(observers, Transition{From: previous, To: AwaitingConfirmation, Message: message})
	return pending
}

/*
Confirm runs the pending effect and returns to Idle.

Returns:
  - string: The effect's message
  - error: ErrNothingPending, or the effect's error
*/
func (workflow *Workflow) Confirm(ctx context.Context) (string, error) {
	workflow.mu.Lock()
	if workflow.pending == nil {
		workflow.mu.Unlock()
		return "", ErrNothingPending
	}
	pending := workflow.pending
	workflow.pending = nil
	workflow.state = Confirmed
	observers := workflow.observersLocked()
	workflow.mu.Unlock()

	workflow.recorder.RecordConfirmation(OutcomeConfirmed)
	notify(observers, Transition{From: AwaitingConfirmation, To: Confirmed, Message: pending.message})

	message, err := pending.effect(ctx)

	workflow.settle(Confirmed, pending.message)
	return message, err
}

// Cancel drops the pending request without running its effect.
// It reports whether anything was pending.
func (workflow *Workflow) Cancel() bool {
	workflow.mu.Lock()
	if workflow.pending == nil {
		workflow.mu.Unlock()
		return false
	}
	pending := workflow.pending
	workflow.pending = nil
	workflow.state = Cancelled
	observers := workflow.observersLocked()
	workflow.mu.Unlock()

	workflow.recorder.RecordConfirmation(OutcomeCancelled)
	notify(observers, Transition{From: AwaitingConfirmation, To: Cancelled, Message: pending.message})

	workflow.settle(Cancelled, pending.message)
	return true
}

// Dismiss handles an interaction outside the confirmation dialog. It cancels.
func (workflow *Workflow) Dismiss() bool {
	return workflow.Cancel()
}

// settle returns to Idle unless a new request arrived meanwhile.
func (workflow *Workflow) settle(from State, message string) {
	workflow.mu.Lock()
	if workflow.state != from {
		workflow.mu.Unlock()
		return
	}
	workflow.state = Idle
	observers := workflow.observersLocked()
	workflow.mu.Unlock()

	notify(observers, Transition{From: from, To: Idle, Message: message})
}

func (workflow *Workflow) observersLocked() []func(Transition) {
	return slices.Clone(workflow.observer)
}

func notify(observers []func(Transition), transition Transition) {
	for _, observer := range observers {
		observer(transition)
	}
}
