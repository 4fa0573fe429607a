// Package storage defines the repository interfaces for account persistence.
//
// The interfaces keep the service layer independent of the storage engine:
// the validation pipeline only ever reads current state through these lookups
// and mutates through the write operations, never touching the engine
// directly.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mvaleed/warden/internal/domain"
)

// UserRepository defines the operations for user persistence.
//
// Lookups return domain.ErrNotFound when no record matches. Create and Update
// return domain.ErrAlreadyExists when a uniqueness constraint is violated at
// commit time.
type UserRepository interface {
	// FindByLogin retrieves a user by login. Logins are stored lower-cased.
	FindByLogin(ctx context.Context, login string) (*domain.User, error)

	// FindByEmail retrieves a user by email, case-insensitively.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByID retrieves a user by id.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// FindByActivationKey retrieves the not-yet-activated user holding the key.
	FindByActivationKey(ctx context.Context, key string) (*domain.User, error)

	// FindByResetKey retrieves the user holding the password reset key.
	FindByResetKey(ctx context.Context, key string) (*domain.User, error)

	// Create stores a new user with its authorities.
	Create(ctx context.Context, user *domain.User) error

	// Update saves changes to an existing user, replacing its authorities.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user by login. Deleting an absent login is a no-op.
	Delete(ctx context.Context, login string) error

	// List retrieves one page of users. Ordering follows the page ordering
	// contract of the store (login ascending); callers do not re-sort.
	List(ctx context.Context, page PageRequest) ([]domain.User, error)

	// Authorities lists every authority name known to the system.
	Authorities(ctx context.Context) ([]string, error)
}

// AuditRepository defines the operations for the audit trail.
//
// The trail is append-only: Record is the only write. FindByID returns
// domain.ErrNotFound when no event matches.
type AuditRepository interface {
	// Record appends one audit event, filling in its assigned id.
	Record(ctx context.Context, event *domain.AuditEvent) error

	// FindByID retrieves a single audit event.
	FindByID(ctx context.Context, id int64) (*domain.AuditEvent, error)

	// List retrieves one page of events ordered by timestamp descending.
	// A nil from or to leaves that end of the range open.
	List(ctx context.Context, from, to *time.Time, page PageRequest) ([]domain.AuditEvent, error)
}

// PageRequest selects one page of a listing.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int {
	if p.Page < 0 {
		return 0
	}
	return p.Page * p.Limit()
}

// Limit returns the clamped page size.
func (p PageRequest) Limit() int {
	switch {
	case p.Size <= 0:
		return 20
	case p.Size > 100:
		return 100
	}
	return p.Size
}
