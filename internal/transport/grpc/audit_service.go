package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mvaleed/warden/internal/domain"
	"github.com/mvaleed/warden/internal/service"
	"github.com/mvaleed/warden/internal/storage"
)

// AuditAPI is the audit trail RPC surface. Every method sits behind the
// required gate mode, and the service itself demands the admin role.
type AuditAPI interface {
	GetAuditEvent(ctx context.Context, in *IDMessage) (*AuditEventMessage, error)
	GetAuditEvents(ctx context.Context, in *AuditRequest) (*AuditEventList, error)
}

// IDMessage wraps a single numeric id.
type IDMessage struct {
	Value int64 `json:"value,omitempty"`
}

// AuditRequest selects one page of audit events, optionally bounded to a
// date range. Dates use the 2006-01-02 form; the range is inclusive of the
// from day and of the to day.
type AuditRequest struct {
	FromDate string `json:"fromDate,omitempty"`
	ToDate   string `json:"toDate,omitempty"`
	Page     int    `json:"page,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// AuditEventMessage is the wire shape of one audit event.
type AuditEventMessage struct {
	ID        int64             `json:"id,omitempty"`
	Principal string            `json:"principal,omitempty"`
	Type      string            `json:"type,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// AuditEventList is one projected page of audit events.
type AuditEventList struct {
	Events []*AuditEventMessage `json:"events,omitempty"`
}

// AuditServer exposes the audit trail over the wire.
type AuditServer struct {
	audits *service.AuditService
}

func NewAuditServer(audits *service.AuditService) *AuditServer {
	return &AuditServer{audits: audits}
}

func (s *AuditServer) GetAuditEvent(ctx context.Context, in *IDMessage) (*AuditEventMessage, error) {
	event, err := s.audits.Find(ctx, in.Value)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return projectAuditEvent(event), nil
}

func (s *AuditServer) GetAuditEvents(ctx context.Context, in *AuditRequest) (*AuditEventList, error) {
	from, err := auditBound(in.FromDate, 0)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed from date")
	}
	// The to day is included in the range, so the bound is the next day.
	to, err := auditBound(in.ToDate, 24*time.Hour)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed to date")
	}

	events, err := s.audits.List(ctx, from, to, storage.PageRequest{Page: in.Page, Size: in.Size})
	if err != nil {
		return nil, mapDomainError(err)
	}

	out := make([]*AuditEventMessage, len(events))
	for i := range events {
		out[i] = projectAuditEvent(&events[i])
	}
	return &AuditEventList{Events: out}, nil
}

// auditBound parses an optional 2006-01-02 date into a range bound, shifted
// by offset. An empty date leaves the bound open.
func auditBound(date string, offset time.Duration) (*time.Time, error) {
	if date == "" {
		return nil, nil
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, err
	}
	bound := day.UTC().Add(offset)
	return &bound, nil
}

func projectAuditEvent(event *domain.AuditEvent) *AuditEventMessage {
	return &AuditEventMessage{
		ID:        event.ID,
		Principal: event.Principal,
		Type:      event.Type,
		Timestamp: projectTime(event.Timestamp),
		Data:      event.Data,
	}
}

// AuditServiceName is the fully qualified RPC service name; the gate policy
// keys off it.
const AuditServiceName = "warden.v1.AuditService"

var auditServiceDesc = grpc.ServiceDesc{
	ServiceName: AuditServiceName,
	HandlerType: (*AuditAPI)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAuditEvent", Handler: unaryHandler("/"+AuditServiceName+"/GetAuditEvent",
			func(srv any, ctx context.Context, in *IDMessage) (any, error) {
				return srv.(AuditAPI).GetAuditEvent(ctx, in)
			})},
		{MethodName: "GetAuditEvents", Handler: unaryHandler("/"+AuditServiceName+"/GetAuditEvents",
			func(srv any, ctx context.Context, in *AuditRequest) (any, error) {
				return srv.(AuditAPI).GetAuditEvents(ctx, in)
			})},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterAuditServer attaches the audit service to a gRPC server.
func RegisterAuditServer(s grpc.ServiceRegistrar, srv AuditAPI) {
	s.RegisterService(&auditServiceDesc, srv)
}
