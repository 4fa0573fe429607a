package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Password length bounds, inclusive. Shared by every operation that accepts
// a new password; checked before any persistence lookup runs.
const (
	PasswordMinLength = 4
	PasswordMaxLength = 100
)

// DefaultLangKey is assigned when a registration or admin create supplies no
// language key.
const DefaultLangKey = "en"

// ResetKeyValidity is how long an issued password reset key stays usable.
const ResetKeyValidity = 24 * time.Hour

// User is the persisted account record. PasswordHash, ActivationKey and
// ResetKey never leave the process through an outward-facing projection.
type User struct {
	ID           uuid.UUID
	Login        string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	ImageURL     string
	LangKey      string
	Activated    bool

	ActivationKey string
	ResetKey      string
	ResetDate     *time.Time

	Authorities []string

	CreatedBy  string
	CreatedAt  time.Time
	ModifiedBy string
	ModifiedAt time.Time
}

// ValidPasswordLength reports whether a plaintext password falls within the
// inclusive [PasswordMinLength, PasswordMaxLength] bounds.
func ValidPasswordLength(password string) bool {
	return len(password) >= PasswordMinLength && len(password) <= PasswordMaxLength
}

// HasAuthority reports whether the user holds the named authority.
func (u *User) HasAuthority(name string) bool {
	return slices.Contains(u.Authorities, name)
}

// Activate marks the account active and consumes the activation key.
// Activation keys are single use.
func (u *User) Activate() {
	u.Activated = true
	u.ActivationKey = ""
	u.ModifiedAt = time.Now().UTC()
}

// SetResetKey issues a fresh reset key with the current time as its issue date.
func (u *User) SetResetKey(key string) {
	now := time.Now().UTC()
	u.ResetKey = key
	u.ResetDate = &now
}

// ResetKeyFresh reports whether the stored reset key was issued within
// ResetKeyValidity of now.
func (u *User) ResetKeyFresh(now time.Time) bool {
	return u.ResetDate != nil && u.ResetDate.After(now.Add(-ResetKeyValidity))
}

// ClearResetKey consumes the reset key after a completed reset.
func (u *User) ClearResetKey() {
	u.ResetKey = ""
	u.ResetDate = nil
	u.ModifiedAt = time.Now().UTC()
}

// NormalizeLogin lower-cases and trims a login for storage and lookup.
// Login comparisons are case-insensitive throughout.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
