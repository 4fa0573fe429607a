// Package mail provides the notification dispatch abstraction.
//
// Dispatch is a best-effort post-commit step: the pipeline fires a
// notification only after a mutation is durably applied, and a failed
// dispatch never changes the outcome of the operation that triggered it.
// Failures are logged and swallowed; implementations must not panic.
package mail

import (
	"context"
	"log/slog"

	"github.com/mvaleed/warden/internal/domain"
)

// Notifier is the interface for account notifications. Implementations can
// be swapped without changing business logic.
type Notifier interface {
	// SendActivationEmail notifies a freshly registered account of its
	// activation key.
	SendActivationEmail(ctx context.Context, user *domain.User)

	// SendCreationEmail notifies an account created by an administrator.
	SendCreationEmail(ctx context.Context, user *domain.User)

	// SendPasswordResetMail notifies an account of a password reset.
	SendPasswordResetMail(ctx context.Context, user *domain.User)
}

// LogNotifier implements Notifier by logging. Used in development and
// wherever no SMTP relay is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendActivationEmail(ctx context.Context, user *domain.User) {
	n.logger.InfoContext(ctx, "activation email dispatched",
		slog.String("login", user.Login),
		slog.String("email", user.Email),
	)
}

func (n *LogNotifier) SendCreationEmail(ctx context.Context, user *domain.User) {
	n.logger.InfoContext(ctx, "creation email dispatched",
		slog.String("login", user.Login),
		slog.String("email", user.Email),
	)
}

func (n *LogNotifier) SendPasswordResetMail(ctx context.Context, user *domain.User) {
	n.logger.InfoContext(ctx, "password reset email dispatched",
		slog.String("login", user.Login),
		slog.String("email", user.Email),
	)
}

// NoopNotifier is a no-op implementation for tests.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (NoopNotifier) SendActivationEmail(context.Context, *domain.User)   {}
func (NoopNotifier) SendCreationEmail(context.Context, *domain.User)     {}
func (NoopNotifier) SendPasswordResetMail(context.Context, *domain.User) {}
