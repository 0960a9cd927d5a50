// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"sync"
)

// Client is the [Provider] of one workspace.
//
// # Delivery
//
// Session changes are appended to a queue. Whoever emits first drains it, so a
// listener that signs out from inside its callback enqueues the nil event
// instead of re-entering the listeners. Delivery order equals emission order.
type Client struct {
	service *Service

	mu          sync.Mutex
	current     *Session
	listeners   []subscription
	nextID      int
	queue       []queuedEvent
	dispatching bool
}

type subscription struct {
	id       int
	listener Listener
}

// NewClient creates a signed-out client over the shared backend.
func NewClient(service *Service) *Client {
	return &Client{service: service}
}

// Current returns the provider-side current session, which may be an
// unverified session the monitor has not yet rejected.
func (client *Client) Current() *Session {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.current
}

/*
Authenticate signs the workspace in with email and password.

Returns:
  - *Session: The new current session (EmailVerified may be false)
  - error: *ProviderError from the backend
*/
func (client *Client) Authenticate(context context.Context, email, password string) (*Session, error) {
	account, err := client.service.Authenticate(context, email, password)
	if err != nil {
		return nil, err
	}

	session := account.Session()
	client.publish(session)
	return session, nil
}

// Register creates an account. The workspace stays signed out until the
// address is verified and the user signs in.
func (client *Client) Register(context context.Context, email, password string) (*Session, error) {
	account, err := client.service.Register(context, email, password)
	if err != nil {
		return nil, err
	}
	return account.Session(), nil
}

// TerminateSession signs the workspace out. Signing out twice is harmless.
func (client *Client) TerminateSession(_ context.Context) error {
	client.publish(nil)
	return nil
}

// BeginAnonymousSession starts a guest session.
func (client *Client) BeginAnonymousSession(_ context.Context) (*Session, error) {
	session, err := client.service.NewAnonymousSession()
	if err != nil {
		return nil, err
	}

	client.publish(session)
	return session, nil
}

// RequestPasswordReset mails a reset link.
func (client *Client) RequestPasswordReset(context context.Context, email string) error {
	return client.service.RequestPasswordReset(context, email)
}

// RequestEmailVerification mails a verification link for the session's account.
func (client *Client) RequestEmailVerification(context context.Context, session *Session) error {
	if session == nil || session.IsAnonymous {
		return newProviderError(CodeOperationNotAllowed, "Only email accounts can be verified")
	}
	return client.service.RequestEmailVerification(context, session.ID)
}

/*
Subscribe registers a listener. The listener is called with the current session
right away (through the queue) and then on every change.

Returns:
  - func(): Removes the listener; safe to call more than once
*/
func (client *Client) Subscribe(listener Listener) func() {
	client.mu.Lock()
	client.nextID++
	id := client.nextID
	client.listeners = append(client.listeners, subscription{id: id, listener: listener})
	current := client.current
	client.mu.Unlock()

	client.deliver(current, id)

	return func() {
		client.mu.Lock()
		defer client.mu.Unlock()
		for index, entry := range client.listeners {
			if entry.id == id {
				client.listeners = append(client.listeners[:index:index], client.listeners[index+1:]...)
				return
			}
		}
	}
}

// publish records the new current session and delivers it to every listener.
func (client *Client) publish(session *Session) {
	client.mu.Lock()
	client.current = session
	client.mu.Unlock()

	client.deliver(session, 0)
}

type queuedEvent struct {
	session *Session
	// only restricts delivery to one subscription (the initial replay); zero means all.
	only int
}

// deliver enqueues an event and drains the queue unless a drain is already running.
func (client *Client) deliver(session *Session, only int) {
	client.mu.Lock()
	client.queue = append(client.queue, queuedEvent{session: session, only: only})
	if client.dispatching {
		client.mu.Unlock()
		return
	}
	client.dispatching = true

	for len(client.queue) > 0 {
		event := client.queue[0]
		client.queue = client.queue[1:]

		targets := make([]Listener, 0, len(client.listeners))
		for _, entry := range client.listeners {
			if event.only == 0 || entry.id == event.only {
				targets = append(targets, entry.listener)
			}
		}

		client.mu.Unlock()
		for _, listener := range targets {
			listener(event.session)
		}
		client.mu.Lock()
	}

	client.dispatching = false
	client.mu.Unlock()
}
