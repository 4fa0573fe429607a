package grpc

import (
	"time"

	"github.com/mvaleed/warden/internal/domain"
)

// Wire messages. Optional fields use omitempty so an absent domain value is
// an absent wire field, never a sentinel string.

// Empty is the empty request/response message.
type Empty struct{}

// StringMessage wraps a single string value.
type StringMessage struct {
	Value string `json:"value,omitempty"`
}

// KeyAndPassword carries a password reset completion.
type KeyAndPassword struct {
	Key         string `json:"key,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`
}

// UserMessage is the wire shape of an account. Password is only ever read
// from requests; projections never fill it.
type UserMessage struct {
	ID          string   `json:"id,omitempty"`
	Login       string   `json:"login,omitempty"`
	Password    string   `json:"password,omitempty"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Email       string   `json:"email,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	LangKey     string   `json:"langKey,omitempty"`
	Activated   bool     `json:"activated,omitempty"`
	Authorities []string `json:"authorities,omitempty"`
	CreatedBy   string   `json:"createdBy,omitempty"`
	CreatedDate string   `json:"createdDate,omitempty"`
	ModifiedBy  string   `json:"lastModifiedBy,omitempty"`
	ModifiedAt  string   `json:"lastModifiedDate,omitempty"`
}

// PageRequest selects one page of a listing.
type PageRequest struct {
	Page int `json:"page,omitempty"`
	Size int `json:"size,omitempty"`
}

// UserList is one projected page of accounts.
type UserList struct {
	Users []*UserMessage `json:"users,omitempty"`
}

// AuthorityList carries the authority names known to the system.
type AuthorityList struct {
	Authorities []string `json:"authorities,omitempty"`
}

// projectUser maps a domain entity to its outward wire shape. The password
// hash, activation key, and reset key are excluded unconditionally; absent
// optional fields stay absent.
func projectUser(u *domain.User) *UserMessage {
	if u == nil {
		return nil
	}
	return &UserMessage{
		ID:          u.ID.String(),
		Login:       u.Login,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		ImageURL:    u.ImageURL,
		LangKey:     u.LangKey,
		Activated:   u.Activated,
		Authorities: u.Authorities,
		CreatedBy:   u.CreatedBy,
		CreatedDate: projectTime(u.CreatedAt),
		ModifiedBy:  u.ModifiedBy,
		ModifiedAt:  projectTime(u.ModifiedAt),
	}
}

// projectUsers projects a storage page element by element, preserving the
// page ordering contract of the store.
func projectUsers(users []domain.User) []*UserMessage {
	out := make([]*UserMessage, len(users))
	for i := range users {
		out[i] = projectUser(&users[i])
	}
	return out
}

func projectTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// opt maps a wire-level empty string to an absent value at ingress, so
// internal logic never re-interprets empty string as business-meaningful.
func opt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
