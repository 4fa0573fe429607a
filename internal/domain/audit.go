package domain

import "time"

// Audit event types recorded by the account operations.
const (
	AuditAccountRegistered      = "ACCOUNT_REGISTERED"
	AuditAccountActivated       = "ACCOUNT_ACTIVATED"
	AuditPasswordChanged        = "PASSWORD_CHANGED"
	AuditPasswordResetRequested = "PASSWORD_RESET_REQUESTED"
	AuditPasswordResetFinished  = "PASSWORD_RESET_FINISHED"
	AuditUserCreated            = "USER_CREATED"
	AuditUserUpdated            = "USER_UPDATED"
	AuditUserDeleted            = "USER_DELETED"
)

// AuditEvent is one recorded security-relevant action: who did what, when.
// Events are append-only; nothing in the system updates or deletes them.
type AuditEvent struct {
	ID        int64
	Principal string
	Type      string
	Timestamp time.Time
	Data      map[string]string
}
