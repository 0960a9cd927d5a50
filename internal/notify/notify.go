// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notify carries user-visible notifications (the toasts of the browser
client) from the core to the presentation layer.

Every failure that is not returned to a caller is raised here, so nothing is
swallowed silently.
*/
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind is the severity shown to the user.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notification is one message for the user.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification)
}

func newNotification(kind Kind, message string) Notification {
	return Notification{Kind: kind, Message: message, At: time.Now().UTC()}
}

// Info builds an info notification.
func Info(message string) Notification { return newNotification(KindInfo, message) }

// Success builds a success notification.
func Success(message string) Notification { return newNotification(KindSuccess, message) }

// Warning builds a warning notification.
func Warning(message string) Notification { return newNotification(KindWarning, message) }

// Error builds an error notification.
func Error(message string) Notification { return newNotification(KindError, message) }

// WithCode tags a notification with a machine-readable code.
func (notification Notification) WithCode(code string) Notification {
	notification.Code = code
	return notification
}

// # Implementations

// DefaultQueueLimit bounds an undrained queue; the oldest notifications are dropped first.
const DefaultQueueLimit = 50

// Queue buffers notifications for one workspace until the client drains them.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

// NewQueue creates a queue holding at most limit notifications.
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	return &Queue{limit: limit}
}

func (queue *Queue) Notify(_ context.Context, notification Notification) {
	queue.mu.Lock()
	defer queue.mu.Unlock()

	queue.items = append(queue.items, notification)
	if overflow := len(queue.items) - queue.limit; overflow > 0 {
		queue.items = queue.items[overflow:]
	}
}

// Drain returns every pending notification in arrival order and empties the queue.
func (queue *Queue) Drain() []Notification {
	queue.mu.Lock()
	defer queue.mu.Unlock()

	drained := queue.items
	queue.items = nil
	if drained == nil {
		return []Notification{}
	}
	return drained
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs at a level matching the kind.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (notifier *LogNotifier) Notify(ctx context.Context, notification Notification) {
	level := slog.LevelInfo
	switch notification.Kind {
	case KindWarning:
		level = slog.LevelWarn
	case KindError:
		level = slog.LevelError
	}

	notifier.logger.Log(ctx, level, "user_notification",
		slog.String("kind", string(notification.Kind)),
		slog.String("message", notification.Message),
		slog.String("code", notification.Code),
	)
}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

func (multi Multi) Notify(ctx context.Context, notification Notification) {
	for _, notifier := range multi {
		notifier.Notify(ctx, notification)
	}
}

// Recorder keeps every notification. The operator CLI prints from it.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (recorder *Recorder) Notify(_ context.Context, notification Notification) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.items = append(recorder.items, notification)
}

// All returns a copy of everything recorded so far.
func (recorder *Recorder) All() []Notification {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]Notification(nil), recorder.items...)
}

// Messages returns the recorded messages only.
func (recorder *Recorder) Messages() []string {
	all := recorder.All()
	messages := make([]string, 0, len(all))
	for _, notification := range all {
		messages = append(messages, notification.Message)
	}
	return messages
}
