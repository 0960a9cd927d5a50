// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"log/slog"
)

// Mailer delivers the provider's transactional emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
	SendVerification(ctx context.Context, email, link string) error
}

// LogMailer writes outgoing mail to the structured log instead of sending it.
// It is the only mailer shipped; a real transport plugs in through [Mailer].
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer that logs at info level.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (mailer *LogMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	mailer.logger.InfoContext(ctx, "mail_password_reset",
		slog.String("to", email),
		slog.String("link", link),
	)
	return nil
}

func (mailer *LogMailer) SendVerification(ctx context.Context, email, link string) error {
	mailer.logger.InfoContext(ctx, "mail_email_verification",
		slog.String("to", email),
		slog.String("link", link),
	)
	return nil
}
