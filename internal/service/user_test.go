package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaleed/warden/internal/domain"
	"github.com/mvaleed/warden/internal/storage"
)

func TestCreateUserActivatesImmediately(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &countingNotifier{}
	svc := NewUserService(repo, newMemoryAudits(), notifier, testLogger())

	user, err := svc.CreateUser(identityCtx("admin", domain.RoleAdmin), CreateUserInput{
		Login: "Bob",
		Email: "Bob@Example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "bob", user.Login)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.True(t, user.Activated)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEmpty(t, user.ResetKey)
	require.NotNil(t, user.ResetDate)
	assert.Equal(t, []string{domain.RoleUser}, user.Authorities)
	assert.Equal(t, "admin", user.CreatedBy)
	assert.Equal(t, 1, notifier.creation)
}

func TestCreateUserKeepsRequestedAuthorities(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewUserService(repo, newMemoryAudits(), &countingNotifier{}, testLogger())

	user, err := svc.CreateUser(identityCtx("admin", domain.RoleAdmin), CreateUserInput{
		Login:       "bob",
		Email:       "bob@example.com",
		Authorities: []string{domain.RoleAdmin, domain.RoleUser},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleAdmin, domain.RoleUser}, user.Authorities)
}

func TestCreateUserRejectsPreSuppliedID(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &countingNotifier{}
	svc := NewUserService(repo, newMemoryAudits(), notifier, testLogger())

	id := uuid.New().String()
	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		ID:    &id,
		Login: "bob",
		Email: "bob@example.com",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "a new user cannot already have an ID", err.Error())
	assert.Equal(t, 0, repo.lookups)
	assert.Equal(t, 0, notifier.creation)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(repo, "alice", "alice@example.com", true)
	svc := NewUserService(repo, newMemoryAudits(), &countingNotifier{}, testLogger())

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		Login: "alice",
		Email: "other@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{
		Login: "bob",
		Email: "alice@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestUpdateUserRewritesRecord(t *testing.T) {
	repo := newMemoryRepo()
	seeded := seedUser(repo, "alice", "alice@example.com", true)
	svc := NewUserService(repo, newMemoryAudits(), &countingNotifier{}, testLogger())

	first := "Alice"
	user, err := svc.UpdateUser(identityCtx("admin", domain.RoleAdmin), UpdateUserInput{
		ID:          seeded.ID.String(),
		Login:       "alice2",
		Email:       "alice2@example.com",
		FirstName:   &first,
		Activated:   false,
		Authorities: []string{domain.RoleAdmin},
	})
	require.NoError(t, err)

	assert.Equal(t, "alice2", user.Login)
	assert.Equal(t, "alice2@example.com", user.Email)
	assert.Equal(t, "Alice", user.FirstName)
	assert.False(t, user.Activated)
	assert.Equal(t, []string{domain.RoleAdmin}, user.Authorities)
	assert.Equal(t, "admin", user.ModifiedBy)
}

func TestUpdateUserMalformedID(t *testing.T) {
	svc := NewUserService(newMemoryRepo(), newMemoryAudits(), &countingNotifier{}, testLogger())

	_, err := svc.UpdateUser(context.Background(), UpdateUserInput{
		ID:    "not-a-uuid",
		Login: "alice",
		Email: "alice@example.com",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateUserUnknownID(t *testing.T) {
	svc := NewUserService(newMemoryRepo(), newMemoryAudits(), &countingNotifier{}, testLogger())

	_, err := svc.UpdateUser(context.Background(), UpdateUserInput{
		ID:    uuid.New().String(),
		Login: "alice",
		Email: "alice@example.com",
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateUserSelfExclusion(t *testing.T) {
	repo := newMemoryRepo()
	seeded := seedUser(repo, "alice", "alice@example.com", true)
	svc := NewUserService(repo, newMemoryAudits(), &countingNotifier{}, testLogger())

	// Keeping its own login and email is not a conflict.
	_, err := svc.UpdateUser(context.Background(), UpdateUserInput{
		ID:          seeded.ID.String(),
		Login:       "alice",
		Email:       "alice@example.com",
		Activated:   true,
		Authorities: []string{domain.RoleUser},
	})
	assert.NoError(t, err)
}

func TestUpdateUserRejectsTakenEmailAndLogin(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(repo, "alice", "alice@example.com", true)
	bob := seedUser(repo, "bob", "bob@example.com", true)
	svc := NewUserService(repo, newMemoryAudits(), &countingNotifier{}, testLogger())

	_, err := svc.UpdateUser(context.Background(), UpdateUserInput{
		ID:    bob.ID.String(),
		Login: "bob",
		Email: "alice@example.com",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, "email already in use", err.Error())

	_, err = svc.UpdateUser(context.Background(), UpdateUserInput{
		ID:    bob.ID.String(),
		Login: "alice",
		Email: "bob@example.com",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, "login already in use", err.Error())
}

func TestGetUserIsCaseInsensitive(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(repo, "alice", "alice@example.com", true)
	svc := NewUserService(repo, newMemoryAudits(), &countingNotifier{}, testLogger())

	user, err := svc.GetUser(context.Background(), "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Login)

	_, err = svc.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListUsersPagesInLoginOrder(t *testing.T) {
	repo := newMemoryRepo()
	for i := 0; i < 5; i++ {
		seedUser(repo, fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i), true)
	}
	svc := NewUserService(repo, newMemoryAudits(), &countingNotifier{}, testLogger())

	page, err := svc.ListUsers(context.Background(), storage.PageRequest{Page: 0, Size: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "user0", page[0].Login)
	assert.Equal(t, "user1", page[1].Login)

	page, err = svc.ListUsers(context.Background(), storage.PageRequest{Page: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "user4", page[0].Login)
}

func TestDeleteUser(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(repo, "alice", "alice@example.com", true)
	svc := NewUserService(repo, newMemoryAudits(), &countingNotifier{}, testLogger())

	require.NoError(t, svc.DeleteUser(identityCtx("admin", domain.RoleAdmin), "ALICE"))

	_, err := svc.GetUser(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting an absent login succeeds.
	assert.NoError(t, svc.DeleteUser(context.Background(), "ghost"))
}

func TestAuthoritiesRequiresAdminRole(t *testing.T) {
	svc := NewUserService(newMemoryRepo(), newMemoryAudits(), &countingNotifier{}, testLogger())

	authorities, err := svc.Authorities(identityCtx("admin", domain.RoleAdmin))
	require.NoError(t, err)
	assert.Contains(t, authorities, domain.RoleAdmin)
	assert.Contains(t, authorities, domain.RoleUser)

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"plain user", identityCtx("bob", domain.RoleUser)},
		{"no identity", context.Background()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authorities(tt.ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrForbidden)
			assert.Equal(t, "admin role required", err.Error())
		})
	}
}
