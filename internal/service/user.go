package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mvaleed/warden/internal/auth"
	"github.com/mvaleed/warden/internal/domain"
	"github.com/mvaleed/warden/internal/mail"
	"github.com/mvaleed/warden/internal/pipeline"
	"github.com/mvaleed/warden/internal/storage"
)

// UserService handles administrative user management. Every operation here
// sits behind the fully gated user RPC service.
type UserService struct {
	users    storage.UserRepository
	audits   storage.AuditRepository
	notifier mail.Notifier
	logger   *slog.Logger
}

func NewUserService(users storage.UserRepository, audits storage.AuditRepository, notifier mail.Notifier, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		audits:   audits,
		notifier: notifier,
		logger:   logger,
	}
}

// auditAdminAction records an admin action with the caller as the principal
// and the affected login in the event data.
func (s *UserService) auditAdminAction(eventType string) pipeline.Effect[*domain.User] {
	return func(ctx context.Context, user *domain.User) {
		recordAudit(ctx, s.audits, s.logger, eventType, currentLogin(ctx),
			map[string]string{"login": user.Login})
	}
}

// CreateUserInput carries an admin create request. ID must be absent: a new
// user cannot arrive with one.
type CreateUserInput struct {
	ID          *string
	Login       string
	Email       string
	FirstName   *string
	LastName    *string
	ImageURL    *string
	LangKey     *string
	Authorities []string
}

// CreateUser creates an account on behalf of an administrator. The account
// is activated immediately with a generated password and a fresh reset key,
// so the owner can pick their own password from the creation email.
// Preconditions, in order: no pre-supplied id, login not taken, email not
// taken.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	login := domain.NormalizeLogin(in.Login)
	email := domain.NormalizeEmail(in.Email)

	checks := []pipeline.Check{
		{
			Name: "a new user cannot already have an ID",
			Test: func(context.Context) (bool, error) { return in.ID == nil, nil },
			Fail: domain.ErrInvalidInput,
		},
		freeCheck("login already in use", domain.ErrAlreadyExists,
			func(ctx context.Context) (*domain.User, error) { return s.users.FindByLogin(ctx, login) },
			anyMatch),
		freeCheck("email already in use", domain.ErrAlreadyExists,
			func(ctx context.Context) (*domain.User, error) { return s.users.FindByEmail(ctx, email) },
			anyMatch),
	}

	mutate := func(ctx context.Context) (*domain.User, error) {
		password, err := domain.NewRandomKey()
		if err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		resetKey, err := domain.NewRandomKey()
		if err != nil {
			return nil, err
		}

		authorities := slices.Clone(in.Authorities)
		if len(authorities) == 0 {
			authorities = slices.Clone(domain.DefaultAuthorities)
		}

		creator := currentLogin(ctx)
		now := time.Now().UTC()
		user := &domain.User{
			ID:           uuid.New(),
			Login:        login,
			Email:        email,
			PasswordHash: hash,
			FirstName:    deref(in.FirstName),
			LastName:     deref(in.LastName),
			ImageURL:     deref(in.ImageURL),
			LangKey:      langOrDefault(in.LangKey),
			Activated:    true,
			Authorities:  authorities,
			CreatedBy:    creator,
			CreatedAt:    now,
			ModifiedBy:   creator,
			ModifiedAt:   now,
		}
		user.SetResetKey(resetKey)
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	return pipeline.Run(ctx, checks, mutate,
		s.notifier.SendCreationEmail,
		s.auditAdminAction(domain.AuditUserCreated),
	)
}

// UpdateUserInput carries an admin update request addressed by id.
type UpdateUserInput struct {
	ID          string
	Login       string
	Email       string
	FirstName   *string
	LastName    *string
	ImageURL    *string
	LangKey     *string
	Activated   bool
	Authorities []string
}

// UpdateUser rewrites an existing account. Uniqueness checks exclude the
// target record itself: a user keeping its own email or login never
// conflicts.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*domain.User, error) {
	id, err := uuid.Parse(in.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id", domain.ErrInvalidInput)
	}

	login := domain.NormalizeLogin(in.Login)
	email := domain.NormalizeEmail(in.Email)

	checks := []pipeline.Check{
		freeCheck("email already in use", domain.ErrAlreadyExists,
			func(ctx context.Context) (*domain.User, error) { return s.users.FindByEmail(ctx, email) },
			func(existing *domain.User) bool { return existing.ID != id }),
		freeCheck("login already in use", domain.ErrAlreadyExists,
			func(ctx context.Context) (*domain.User, error) { return s.users.FindByLogin(ctx, login) },
			func(existing *domain.User) bool { return existing.ID != id }),
	}

	mutate := func(ctx context.Context) (*domain.User, error) {
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		user.Login = login
		user.Email = email
		user.FirstName = deref(in.FirstName)
		user.LastName = deref(in.LastName)
		user.ImageURL = deref(in.ImageURL)
		user.LangKey = deref(in.LangKey)
		user.Activated = in.Activated
		user.Authorities = slices.Clone(in.Authorities)
		user.ModifiedBy = currentLogin(ctx)
		user.ModifiedAt = time.Now().UTC()

		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	return pipeline.Run(ctx, checks, mutate,
		s.auditAdminAction(domain.AuditUserUpdated),
	)
}

// GetUser returns one account by login.
func (s *UserService) GetUser(ctx context.Context, login string) (*domain.User, error) {
	return s.users.FindByLogin(ctx, domain.NormalizeLogin(login))
}

// ListUsers returns one page of accounts in the store's page order.
func (s *UserService) ListUsers(ctx context.Context, page storage.PageRequest) ([]domain.User, error) {
	return s.users.List(ctx, page)
}

// DeleteUser removes an account by login. Deleting an absent login succeeds.
func (s *UserService) DeleteUser(ctx context.Context, login string) error {
	login = domain.NormalizeLogin(login)
	if err := s.users.Delete(ctx, login); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted",
		slog.String("login", login),
		slog.String("deleted_by", currentLogin(ctx)),
	)
	recordAudit(ctx, s.audits, s.logger, domain.AuditUserDeleted, currentLogin(ctx),
		map[string]string{"login": login})
	return nil
}

// Authorities lists every authority name. Admin only: a single-check
// pipeline with the same short-circuit contract as the mutating operations.
func (s *UserService) Authorities(ctx context.Context) ([]string, error) {
	return pipeline.Run(ctx, []pipeline.Check{adminCheck()}, func(ctx context.Context) ([]string, error) {
		return s.users.Authorities(ctx)
	})
}
