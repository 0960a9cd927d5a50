// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package workspace composes the per-client objects of Gatekeeper.

A workspace stands for one browser context. It owns the identity client, the
session state and monitor, the access view, the profile store, the
administrator directory, the confirmation workflow and the notification
queue. All workspaces share one identity backend, one document store and one
cache backend.

Operations on a workspace are serialized with [Workspace.Do], so each
workspace behaves like the single-threaded browser it replaces.
*/
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taibuivan/gatekeeper/internal/access"
	"github.com/taibuivan/gatekeeper/internal/confirm"
	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/notify"
	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
	"github.com/taibuivan/gatekeeper/internal/platform/kvcache"
	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
	"github.com/taibuivan/gatekeeper/internal/session"
	"github.com/taibuivan/gatekeeper/internal/users/auth"
	"github.com/taibuivan/gatekeeper/internal/users/directory"
	"github.com/taibuivan/gatekeeper/internal/users/profile"
)

// closeTimeout bounds the cache cleanup done when a workspace is closed.
const closeTimeout = 5 * time.Second

// ErrClosed is returned by [Workspace.Do] once the workspace has been evicted.
var ErrClosed = errors.New("workspace_closed")

// Shared holds the collaborators every workspace uses.
type Shared struct {
	Identity  *identity.Service
	Documents docstore.Store
	Caches    kvcache.Backend
	Recorder  metrics.Recorder
	Logger    *slog.Logger

	Profile profile.Options
	// IsAdminEmail marks bootstrap administrators at sign-up. May be nil.
	IsAdminEmail func(email string) bool
}

// Workspace is the state of one browser context.
type Workspace struct {
	ID string

	Client        *identity.Client
	State         *session.State
	Monitor       *session.Monitor
	View          *access.View
	Profiles      *profile.Store
	Directory     *directory.Directory
	Confirmations *confirm.Workflow
	Notifications *notify.Queue
	Flows         *auth.Flows

	mu     sync.Mutex
	closed atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	headerMu sync.Mutex
	header   *profile.Identity

	seenMu   sync.Mutex
	lastSeen time.Time
}

/*
New builds and starts a workspace.

Description: Listeners are registered before the monitor subscribes, so the
access view and the header already reflect the provider's initial session
when New returns.
*/
func New(id string, shared Shared) *Workspace {
	logger := shared.Logger.With(slog.String("workspace_id", id))
	ctx, cancel := context.WithCancel(context.Background())

	client := identity.NewClient(shared.Identity)
	state := session.NewState()
	queue := notify.NewQueue(notify.DefaultQueueLimit)
	notifier := notify.Multi{queue, notify.NewLogNotifier(logger)}
	monitor := session.NewMonitor(client, state, notifier, shared.Recorder, logger)

	profiles := profile.NewStore(monitor, shared.Documents, shared.Caches.Scope(id), shared.Profile, shared.Recorder, logger)
	state.OnReset(func(resetCtx context.Context) {
		if err := profiles.ClearLocal(resetCtx); err != nil {
			notifier.Notify(resetCtx, notify.Warning("The local profile copy could not be cleared."))
		}
	})

	workflow := confirm.New(shared.Recorder)
	workflow.OnTransition(func(transition confirm.Transition) {
		logger.Debug("confirmation_transition",
			slog.String("from", string(transition.From)),
			slog.String("to", string(transition.To)),
		)
	})

	workspace := &Workspace{
		ID:            id,
		Client:        client,
		State:         state,
		Monitor:       monitor,
		View:          access.NewView(),
		Profiles:      profiles,
		Directory:     directory.New(profiles, shared.Documents, client, directory.Options{Collection: shared.Profile.Collection, DefaultAvatar: shared.Profile.DefaultAvatar, Clock: shared.Profile.Clock}, shared.Recorder, logger),
		Confirmations: workflow,
		Notifications: queue,
		Flows:         auth.NewFlows(client, profiles, notifier, shared.IsAdminEmail, logger),
		ctx:           ctx,
		cancel:        cancel,
		logger:        logger,
		lastSeen:      time.Now(),
	}

	workspace.View.OnRefreshProfile(workspace.refreshHeader)
	monitor.OnSessionChanged(func(current *identity.Session) {
		if current == nil {
			workspace.setHeader(nil)
		}
	})
	access.NewGate(workspace.View).Attach(monitor)

	monitor.Start(ctx)
	return workspace
}

// Do runs fn with the workspace locked. It returns [ErrClosed] without running
// fn once the workspace has been closed.
func (workspace *Workspace) Do(fn func(workspace *Workspace) error) error {
	workspace.mu.Lock()
	defer workspace.mu.Unlock()
	if workspace.closed.Load() {
		return ErrClosed
	}
	workspace.touch()
	return fn(workspace)
}

// Header returns the identity shown in the page header, or nil when signed out.
func (workspace *Workspace) Header() *profile.Identity {
	workspace.headerMu.Lock()
	defer workspace.headerMu.Unlock()
	return workspace.header
}

/*
Close detaches the monitor and discards the session and the local profile copy.

Description: A workspace rebuilt later under the same id starts signed out, so
nothing it finds in the cache could belong to its next user. Close waits for a
running [Workspace.Do] and is idempotent.
*/
func (workspace *Workspace) Close() {
	workspace.mu.Lock()
	defer workspace.mu.Unlock()
	if workspace.closed.Load() {
		return
	}
	workspace.closed.Store(true)

	workspace.Monitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	workspace.State.Reset(ctx)

	workspace.cancel()
}

func (workspace *Workspace) refreshHeader() {
	display := workspace.Profiles.Display(workspace.ctx)
	workspace.setHeader(&display)
}

func (workspace *Workspace) setHeader(header *profile.Identity) {
	workspace.headerMu.Lock()
	defer workspace.headerMu.Unlock()
	workspace.header = header
}

func (workspace *Workspace) touch() {
	workspace.seenMu.Lock()
	defer workspace.seenMu.Unlock()
	workspace.lastSeen = time.Now()
}

func (workspace *Workspace) idleSince() time.Time {
	workspace.seenMu.Lock()
	defer workspace.seenMu.Unlock()
	return workspace.lastSeen
}
