package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mvaleed/warden/internal/auth"
	"github.com/mvaleed/warden/internal/domain"
	"github.com/mvaleed/warden/internal/pipeline"
	"github.com/mvaleed/warden/internal/storage"
)

// AuditService exposes the audit trail to administrators. The trail itself
// is written by the account and user services; this service only reads it.
type AuditService struct {
	events storage.AuditRepository
	logger *slog.Logger
}

func NewAuditService(events storage.AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		events: events,
		logger: logger,
	}
}

// adminCheck gates an operation on the caller holding the admin role.
func adminCheck() pipeline.Check {
	return pipeline.Check{
		Name: "admin role required",
		Test: func(ctx context.Context) (bool, error) {
			id, ok := auth.IdentityFromContext(ctx)
			return ok && id.HasAuthority(domain.RoleAdmin), nil
		},
		Fail: domain.ErrForbidden,
	}
}

// Find returns one audit event by id. Admin only.
func (s *AuditService) Find(ctx context.Context, id int64) (*domain.AuditEvent, error) {
	return pipeline.Run(ctx, []pipeline.Check{adminCheck()}, func(ctx context.Context) (*domain.AuditEvent, error) {
		return s.events.FindByID(ctx, id)
	})
}

// List returns one page of audit events, newest first, optionally bounded to
// the half-open range [from, to). Admin only.
func (s *AuditService) List(ctx context.Context, from, to *time.Time, page storage.PageRequest) ([]domain.AuditEvent, error) {
	return pipeline.Run(ctx, []pipeline.Check{adminCheck()}, func(ctx context.Context) ([]domain.AuditEvent, error) {
		return s.events.List(ctx, from, to, page)
	})
}
