package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mvaleed/warden/internal/domain"
	"github.com/mvaleed/warden/internal/storage"
)

// memoryRepo is an in-memory UserRepository for service tests. It counts
// lookups so ordering properties (no state read before the stateless checks)
// can be asserted.
type memoryRepo struct {
	users       map[uuid.UUID]*domain.User
	authorities []string
	lookups     int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:       make(map[uuid.UUID]*domain.User),
		authorities: []string{domain.RoleAdmin, domain.RoleUser, domain.RoleAnonymous},
	}
}

func (r *memoryRepo) add(user *domain.User) {
	clone := *user
	r.users[user.ID] = &clone
}

func (r *memoryRepo) get(id uuid.UUID) *domain.User {
	return r.users[id]
}

func (r *memoryRepo) FindByLogin(_ context.Context, login string) (*domain.User, error) {
	r.lookups++
	for _, u := range r.users {
		if u.Login == login {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.lookups++
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.lookups++
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) FindByActivationKey(_ context.Context, key string) (*domain.User, error) {
	r.lookups++
	for _, u := range r.users {
		if !u.Activated && u.ActivationKey != "" && u.ActivationKey == key {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) FindByResetKey(_ context.Context, key string) (*domain.User, error) {
	r.lookups++
	for _, u := range r.users {
		if u.ResetKey != "" && u.ResetKey == key {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.Login == user.Login || u.Email == user.Email {
			return domain.ErrAlreadyExists
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, login string) error {
	for id, u := range r.users {
		if u.Login == login {
			delete(r.users, id)
			return nil
		}
	}
	return nil
}

func (r *memoryRepo) List(_ context.Context, page storage.PageRequest) ([]domain.User, error) {
	all := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Login < all[j].Login })

	offset := page.Offset()
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + page.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryRepo) Authorities(context.Context) ([]string, error) {
	return r.authorities, nil
}

// memoryAudits is an in-memory append-only AuditRepository.
type memoryAudits struct {
	events []domain.AuditEvent
	nextID int64
}

func newMemoryAudits() *memoryAudits {
	return &memoryAudits{nextID: 1}
}

func (a *memoryAudits) Record(_ context.Context, event *domain.AuditEvent) error {
	event.ID = a.nextID
	a.nextID++
	a.events = append(a.events, *event)
	return nil
}

func (a *memoryAudits) FindByID(_ context.Context, id int64) (*domain.AuditEvent, error) {
	for i := range a.events {
		if a.events[i].ID == id {
			clone := a.events[i]
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (a *memoryAudits) List(_ context.Context, from, to *time.Time, page storage.PageRequest) ([]domain.AuditEvent, error) {
	var matched []domain.AuditEvent
	for _, e := range a.events {
		if from != nil && e.Timestamp.Before(*from) {
			continue
		}
		if to != nil && !e.Timestamp.Before(*to) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })

	offset := page.Offset()
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + page.Limit()
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// types returns the recorded event types in order.
func (a *memoryAudits) types() []string {
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.Type
	}
	return out
}

// countingNotifier records which notifications fired.
type countingNotifier struct {
	activation int
	creation   int
	reset      int
}

func (n *countingNotifier) SendActivationEmail(context.Context, *domain.User)   { n.activation++ }
func (n *countingNotifier) SendCreationEmail(context.Context, *domain.User)     { n.creation++ }
func (n *countingNotifier) SendPasswordResetMail(context.Context, *domain.User) { n.reset++ }
