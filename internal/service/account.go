package service

import (
	"context"
	"errors"
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

// AccountService handles self-service account operations: registration,
// activation, profile updates, and password management.
type AccountService struct {
	users    storage.UserRepository
	audits   storage.AuditRepository
	notifier mail.Notifier
	logger   *slog.Logger
}

func NewAccountService(users storage.UserRepository, audits storage.AuditRepository, notifier mail.Notifier, logger *slog.Logger) *AccountService {
	return &AccountService{
		users:    users,
		audits:   audits,
		notifier: notifier,
		logger:   logger,
	}
}

// RegisterInput carries a registration request. Optional wire fields arrive
// as nil when unset; the transport maps empty strings to absence at ingress.
type RegisterInput struct {
	Login     string
	Email     string
	Password  string
	FirstName *string
	LastName  *string
	ImageURL  *string
	LangKey   *string
}

// Register creates a pending account. Preconditions, in order: password
// length within bounds, login not taken, email not taken. Requested
// authorities are ignored; a registration always gets the default role set.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	login := domain.NormalizeLogin(in.Login)
	email := domain.NormalizeEmail(in.Email)

	checks := []pipeline.Check{
		passwordLengthCheck(in.Password),
		freeCheck("login already in use", domain.ErrAlreadyExists,
			func(ctx context.Context) (*domain.User, error) { return s.users.FindByLogin(ctx, login) },
			anyMatch),
		freeCheck("email already in use", domain.ErrAlreadyExists,
			func(ctx context.Context) (*domain.User, error) { return s.users.FindByEmail(ctx, email) },
			anyMatch),
	}

	mutate := func(ctx context.Context) (*domain.User, error) {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		key, err := domain.NewRandomKey()
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		user := &domain.User{
			ID:            uuid.New(),
			Login:         login,
			Email:         email,
			PasswordHash:  hash,
			FirstName:     deref(in.FirstName),
			LastName:      deref(in.LastName),
			ImageURL:      deref(in.ImageURL),
			LangKey:       langOrDefault(in.LangKey),
			Activated:     false,
			ActivationKey: key,
			Authorities:   slices.Clone(domain.DefaultAuthorities),
			CreatedBy:     login,
			CreatedAt:     now,
			ModifiedBy:    login,
			ModifiedAt:    now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	return pipeline.Run(ctx, checks, mutate,
		s.notifier.SendActivationEmail,
		auditEffect(s.audits, s.logger, domain.AuditAccountRegistered),
	)
}

// Activate flips a pending account to active, consuming its activation key.
// A key that resolves to nothing, including a key already consumed by an
// earlier activation, fails the same way.
func (s *AccountService) Activate(ctx context.Context, key string) (*domain.User, error) {
	var user *domain.User

	checks := []pipeline.Check{{
		Name: "no user was found for this activation key",
		Test: func(ctx context.Context) (bool, error) {
			found, err := s.users.FindByActivationKey(ctx, key)
			if errors.Is(err, domain.ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			user = found
			return true, nil
		},
		Fail: domain.ErrInternal,
	}}

	mutate := func(ctx context.Context) (*domain.User, error) {
		user.Activate()
		user.ModifiedBy = currentLogin(ctx)
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	return pipeline.Run(ctx, checks, mutate,
		auditEffect(s.audits, s.logger, domain.AuditAccountActivated),
	)
}

// AuthenticatedLogin returns the caller's principal name, or the empty
// string when the call carries no identity.
func (s *AccountService) AuthenticatedLogin(ctx context.Context) string {
	if id, ok := auth.IdentityFromContext(ctx); ok {
		return id.Login
	}
	return ""
}

// GetAccount returns the caller's own record. A missing identity or a
// caller whose record no longer exists is an internal failure: the gate let
// a call through that state cannot account for.
func (s *AccountService) GetAccount(ctx context.Context) (*domain.User, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no authenticated user", domain.ErrInternal)
	}

	user, err := s.users.FindByLogin(ctx, domain.NormalizeLogin(id.Login))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: account %q does not exist", domain.ErrInternal, id.Login)
	}
	return user, err
}

// SaveAccountInput carries a profile update for the calling account.
type SaveAccountInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	ImageURL  *string
	LangKey   *string
}

// SaveAccount updates the caller's own profile. Preconditions, in order: the
// new email is not used by a different identity (the caller's own record
// does not conflict with itself), and the caller's record exists. Password,
// activation state, and authorities are never touched by this path.
func (s *AccountService) SaveAccount(ctx context.Context, in SaveAccountInput) (*domain.User, error) {
	login := currentLogin(ctx)

	var user *domain.User

	checks := []pipeline.Check{
		freeCheck("email already in use", domain.ErrAlreadyExists,
			func(ctx context.Context) (*domain.User, error) {
				if in.Email == nil {
					return nil, domain.ErrNotFound
				}
				return s.users.FindByEmail(ctx, domain.NormalizeEmail(*in.Email))
			},
			func(existing *domain.User) bool { return existing.Login != login }),
		{
			Name: "current account does not exist",
			Test: func(ctx context.Context) (bool, error) {
				found, err := s.users.FindByLogin(ctx, login)
				if errors.Is(err, domain.ErrNotFound) {
					return false, nil
				}
				if err != nil {
					return false, err
				}
				user = found
				return true, nil
			},
			Fail: domain.ErrInternal,
		},
	}

	mutate := func(ctx context.Context) (*domain.User, error) {
		user.FirstName = deref(in.FirstName)
		user.LastName = deref(in.LastName)
		if in.Email != nil {
			user.Email = domain.NormalizeEmail(*in.Email)
		}
		user.LangKey = deref(in.LangKey)
		user.ImageURL = deref(in.ImageURL)
		user.ModifiedBy = login
		user.ModifiedAt = time.Now().UTC()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	return pipeline.Run(ctx, checks, mutate)
}

// ChangePassword replaces the caller's password. The length check runs
// before any state lookup.
func (s *AccountService) ChangePassword(ctx context.Context, newPassword string) error {
	checks := []pipeline.Check{
		passwordLengthCheck(newPassword),
	}

	mutate := func(ctx context.Context) (*domain.User, error) {
		id, ok := auth.IdentityFromContext(ctx)
		if !ok {
			return nil, fmt.Errorf("%w: no authenticated user", domain.ErrInternal)
		}
		user, err := s.users.FindByLogin(ctx, domain.NormalizeLogin(id.Login))
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %q does not exist", domain.ErrInternal, id.Login)
		}
		if err != nil {
			return nil, err
		}

		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		user.ModifiedBy = user.Login
		user.ModifiedAt = time.Now().UTC()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	_, err := pipeline.Run(ctx, checks, mutate,
		auditEffect(s.audits, s.logger, domain.AuditPasswordChanged),
	)
	return err
}

// RequestPasswordReset issues a reset key for the activated account holding
// the given email and dispatches the reset notification.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User

	checks := []pipeline.Check{{
		Name: "email address not registered",
		Test: func(ctx context.Context) (bool, error) {
			found, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
			if errors.Is(err, domain.ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			if !found.Activated {
				return false, nil
			}
			user = found
			return true, nil
		},
		Fail: domain.ErrInvalidInput,
	}}

	mutate := func(ctx context.Context) (*domain.User, error) {
		key, err := domain.NewRandomKey()
		if err != nil {
			return nil, err
		}
		user.SetResetKey(key)
		user.ModifiedBy = user.Login
		user.ModifiedAt = time.Now().UTC()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	return pipeline.Run(ctx, checks, mutate,
		s.notifier.SendPasswordResetMail,
		auditEffect(s.audits, s.logger, domain.AuditPasswordResetRequested),
	)
}

// FinishPasswordReset completes a reset. Preconditions, in order: the new
// password is within bounds, and the reset key resolves to an account whose
// key is still fresh.
func (s *AccountService) FinishPasswordReset(ctx context.Context, key, newPassword string) (*domain.User, error) {
	var user *domain.User

	checks := []pipeline.Check{
		passwordLengthCheck(newPassword),
		{
			Name: "no user was found for this reset key",
			Test: func(ctx context.Context) (bool, error) {
				found, err := s.users.FindByResetKey(ctx, key)
				if errors.Is(err, domain.ErrNotFound) {
					return false, nil
				}
				if err != nil {
					return false, err
				}
				if !found.ResetKeyFresh(time.Now().UTC()) {
					return false, nil
				}
				user = found
				return true, nil
			},
			Fail: domain.ErrInternal,
		},
	}

	mutate := func(ctx context.Context) (*domain.User, error) {
		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		user.ClearResetKey()
		user.ModifiedBy = user.Login
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	return pipeline.Run(ctx, checks, mutate,
		s.notifier.SendPasswordResetMail,
		auditEffect(s.audits, s.logger, domain.AuditPasswordResetFinished),
	)
}
