// Package service contains the business logic layer.
//
// Every mutating operation is expressed as an ordered precondition pipeline:
// checks against current persisted state run first and short-circuit on the
// first violation, then the mutation applies, then best-effort notifications
// fire. Services do not know about gRPC, HTTP, or wire shapes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mvaleed/warden/internal/auth"
	"github.com/mvaleed/warden/internal/domain"
	"github.com/mvaleed/warden/internal/pipeline"
	"github.com/mvaleed/warden/internal/storage"
)

// systemAccount is recorded as the auditor when no call identity exists.
const systemAccount = "system"

// currentLogin returns the authenticated caller's login, or the system
// account when the call carries no identity.
func currentLogin(ctx context.Context) string {
	if id, ok := auth.IdentityFromContext(ctx); ok && id.Login != "" {
		return domain.NormalizeLogin(id.Login)
	}
	return systemAccount
}

// deref unwraps an optional field, mapping absence to the empty string at
// the storage boundary.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// langOrDefault unwraps an optional language key, falling back to the
// default.
func langOrDefault(s *string) string {
	if s == nil || *s == "" {
		return domain.DefaultLangKey
	}
	return *s
}

// passwordLengthCheck gates a new plaintext password on the shared inclusive
// length bounds. It touches no persisted state, so it is always ordered
// before any lookup check.
func passwordLengthCheck(password string) pipeline.Check {
	return pipeline.Check{
		Name: "incorrect password",
		Test: func(context.Context) (bool, error) {
			return domain.ValidPasswordLength(password), nil
		},
		Fail: domain.ErrInvalidInput,
	}
}

// freeCheck builds a uniqueness check from a state lookup. The check passes
// when the lookup finds nothing, or when the found record is not considered
// a conflict (the self-exclusion rule for updates).
func freeCheck(name string, fail error, lookup func(ctx context.Context) (*domain.User, error), conflicts func(*domain.User) bool) pipeline.Check {
	return pipeline.Check{
		Name: name,
		Test: func(ctx context.Context) (bool, error) {
			existing, err := lookup(ctx)
			if errors.Is(err, domain.ErrNotFound) {
				return true, nil
			}
			if err != nil {
				return false, err
			}
			return !conflicts(existing), nil
		},
		Fail: fail,
	}
}

// anyMatch treats every found record as a conflict.
func anyMatch(*domain.User) bool { return true }

// recordAudit appends one event to the audit trail. The trail is a
// best-effort post-commit record like the notifications: a failed write is
// logged and never changes the outcome of the operation it describes.
func recordAudit(ctx context.Context, audits storage.AuditRepository, logger *slog.Logger, eventType, principal string, data map[string]string) {
	event := &domain.AuditEvent{
		Principal: principal,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	if err := audits.Record(ctx, event); err != nil {
		logger.ErrorContext(ctx, "audit record failed",
			slog.String("type", eventType),
			slog.String("principal", principal),
			slog.String("error", err.Error()),
		)
	}
}

// auditEffect builds a post-mutation effect recording the given event type
// with the mutated account as the principal.
func auditEffect(audits storage.AuditRepository, logger *slog.Logger, eventType string) pipeline.Effect[*domain.User] {
	return func(ctx context.Context, user *domain.User) {
		recordAudit(ctx, audits, logger, eventType, user.Login, nil)
	}
}
