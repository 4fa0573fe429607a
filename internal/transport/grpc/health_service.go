package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Pinger reports storage liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus reports service liveness.
type HealthStatus struct {
	Status string `json:"status,omitempty"`
}

// ProfileInfo describes the running deployment profile.
type ProfileInfo struct {
	ActiveProfiles []string `json:"activeProfiles,omitempty"`
	RibbonEnv      string   `json:"ribbonEnv,omitempty"`
}

// HealthServer answers liveness probes. It is registered outside the gate.
type HealthServer struct {
	db Pinger
}

func NewHealthServer(db Pinger) *HealthServer {
	return &HealthServer{db: db}
}

func (s *HealthServer) Check(ctx context.Context, _ *Empty) (*HealthStatus, error) {
	if err := s.db.Ping(ctx); err != nil {
		return nil, status.Error(codes.Unavailable, "database unreachable")
	}
	return &HealthStatus{Status: "UP"}, nil
}

// ProfileServer reports the active deployment profile. Registered outside
// the gate.
type ProfileServer struct {
	profile string
	ribbon  string
}

func NewProfileServer(profile, ribbon string) *ProfileServer {
	return &ProfileServer{profile: profile, ribbon: ribbon}
}

func (s *ProfileServer) Get(ctx context.Context, _ *Empty) (*ProfileInfo, error) {
	return &ProfileInfo{
		ActiveProfiles: []string{s.profile},
		RibbonEnv:      s.ribbon,
	}, nil
}

const (
	HealthServiceName  = "warden.v1.HealthService"
	ProfileServiceName = "warden.v1.ProfileInfoService"
)

// HealthAPI is the liveness RPC surface.
type HealthAPI interface {
	Check(ctx context.Context, in *Empty) (*HealthStatus, error)
}

// ProfileAPI is the deployment profile RPC surface.
type ProfileAPI interface {
	Get(ctx context.Context, in *Empty) (*ProfileInfo, error)
}

var healthServiceDesc = grpc.ServiceDesc{
	ServiceName: HealthServiceName,
	HandlerType: (*HealthAPI)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Check", Handler: unaryHandler("/"+HealthServiceName+"/Check",
			func(srv any, ctx context.Context, in *Empty) (any, error) {
				return srv.(HealthAPI).Check(ctx, in)
			})},
	},
	Streams: []grpc.StreamDesc{},
}

var profileServiceDesc = grpc.ServiceDesc{
	ServiceName: ProfileServiceName,
	HandlerType: (*ProfileAPI)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: unaryHandler("/"+ProfileServiceName+"/Get",
			func(srv any, ctx context.Context, in *Empty) (any, error) {
				return srv.(ProfileAPI).Get(ctx, in)
			})},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterHealthServer attaches the health service to a gRPC server.
func RegisterHealthServer(s grpc.ServiceRegistrar, srv HealthAPI) {
	s.RegisterService(&healthServiceDesc, srv)
}

// RegisterProfileServer attaches the profile service to a gRPC server.
func RegisterProfileServer(s grpc.ServiceRegistrar, srv ProfileAPI) {
	s.RegisterService(&profileServiceDesc, srv)
}
