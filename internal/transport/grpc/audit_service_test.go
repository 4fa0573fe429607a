package grpc

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mvaleed/warden/internal/auth"
	"github.com/mvaleed/warden/internal/domain"
	"github.com/mvaleed/warden/internal/service"
	"github.com/mvaleed/warden/internal/storage"
)

// auditTrail is a minimal in-memory AuditRepository.
type auditTrail struct {
	events []domain.AuditEvent
}

func (a *auditTrail) Record(_ context.Context, event *domain.AuditEvent) error {
	event.ID = int64(len(a.events) + 1)
	a.events = append(a.events, *event)
	return nil
}

func (a *auditTrail) FindByID(_ context.Context, id int64) (*domain.AuditEvent, error) {
	for i := range a.events {
		if a.events[i].ID == id {
			clone := a.events[i]
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (a *auditTrail) List(_ context.Context, from, to *time.Time, _ storage.PageRequest) ([]domain.AuditEvent, error) {
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
	return matched, nil
}

func testLoggerDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func adminCtx() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{
		Login:       "admin",
		Authorities: []string{domain.RoleAdmin},
	})
}

func testAuditServer(trail *auditTrail) *AuditServer {
	return NewAuditServer(service.NewAuditService(trail, testLoggerDiscard()))
}

func TestGetAuditEvent(t *testing.T) {
	trail := &auditTrail{}
	require.NoError(t, trail.Record(context.Background(), &domain.AuditEvent{
		Principal: "alice",
		Type:      domain.AuditAccountRegistered,
		Timestamp: time.Now().UTC(),
	}))
	srv := testAuditServer(trail)

	event, err := srv.GetAuditEvent(adminCtx(), &IDMessage{Value: 1})
	require.NoError(t, err)
	assert.Equal(t, "alice", event.Principal)
	assert.Equal(t, domain.AuditAccountRegistered, event.Type)

	_, err = srv.GetAuditEvent(adminCtx(), &IDMessage{Value: 42})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGetAuditEventsByDateRange(t *testing.T) {
	trail := &auditTrail{}
	require.NoError(t, trail.Record(context.Background(), &domain.AuditEvent{
		Principal: "alice",
		Type:      domain.AuditAccountRegistered,
		Timestamp: time.Date(2015, 8, 4, 10, 11, 30, 0, time.UTC),
	}))
	srv := testAuditServer(trail)

	// The to day is inclusive.
	list, err := srv.GetAuditEvents(adminCtx(), &AuditRequest{FromDate: "2015-08-01", ToDate: "2015-08-04"})
	require.NoError(t, err)
	require.Len(t, list.Events, 1)
	assert.Equal(t, "alice", list.Events[0].Principal)

	list, err = srv.GetAuditEvents(adminCtx(), &AuditRequest{FromDate: "2015-09-01", ToDate: "2015-09-20"})
	require.NoError(t, err)
	assert.Empty(t, list.Events)
}

func TestGetAuditEventsMalformedDate(t *testing.T) {
	srv := testAuditServer(&auditTrail{})

	_, err := srv.GetAuditEvents(adminCtx(), &AuditRequest{FromDate: "04/08/2015"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = srv.GetAuditEvents(adminCtx(), &AuditRequest{ToDate: "not-a-date"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAuditSurfaceDeniesNonAdmin(t *testing.T) {
	srv := testAuditServer(&auditTrail{})
	userCtx := auth.WithIdentity(context.Background(), auth.Identity{
		Login:       "bob",
		Authorities: []string{domain.RoleUser},
	})

	_, err := srv.GetAuditEvents(userCtx, &AuditRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = srv.GetAuditEvent(userCtx, &IDMessage{Value: 1})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}
