package grpc

import (
	"context"
	"log/slog"
	"net"
	"strings"

	"google.golang.org/grpc"

	"github.com/mvaleed/warden/internal/auth"
	"github.com/mvaleed/warden/internal/service"
)

// Server is the RPC front of the application. All services share one
// interceptor chain; the gate policy decides per service how strictly
// credentials are enforced.
type Server struct {
	grpc   *grpc.Server
	addr   string
	logger *slog.Logger
}

// Options carries everything the RPC surface needs.
type Options struct {
	Addr     string
	Tokens   *auth.TokenManager
	Accounts *service.AccountService
	Users    *service.UserService
	Audits   *service.AuditService
	DB       Pinger
	Profile  string
	Ribbon   string
	Logger   *slog.Logger
}

// NewServer assembles the gRPC server: forced JSON codec, the
// logging / recovery / auth interceptor chain, and all service
// registrations.
func NewServer(opts Options) *Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(
			UnaryLogging(opts.Logger),
			UnaryRecovery(opts.Logger),
			UnaryAuth(opts.Tokens, defaultGatePolicy),
		),
	)

	RegisterAccountServer(srv, NewAccountServer(opts.Accounts))
	RegisterUserServer(srv, NewUserServer(opts.Users))
	RegisterAuditServer(srv, NewAuditServer(opts.Audits))
	RegisterHealthServer(srv, NewHealthServer(opts.DB))
	RegisterProfileServer(srv, NewProfileServer(opts.Profile, opts.Ribbon))

	return &Server{
		grpc:   srv,
		addr:   opts.Addr,
		logger: opts.Logger,
	}
}

// defaultGatePolicy maps each RPC service to its gate mode. The admin user
// and audit services demand credentials on every call; the account service
// attaches an identity when one is presented but lets anonymous calls
// through so that registration, activation, and password reset work before a
// token exists; health and profile probes bypass the gate.
func defaultGatePolicy(fullMethod string) GateMode {
	switch serviceOf(fullMethod) {
	case UserServiceName, AuditServiceName:
		return GateRequired
	case AccountServiceName:
		return GateOptional
	default:
		return GateNone
	}
}

// serviceOf extracts the service name from a "/service/method" full method.
func serviceOf(fullMethod string) string {
	name := strings.TrimPrefix(fullMethod, "/")
	if i := strings.Index(name, "/"); i >= 0 {
		return name[:i]
	}
	return name
}

// Serve listens on the configured address and blocks until the server stops.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.logger.Info("grpc server listening", slog.String("addr", s.addr))
	return s.grpc.Serve(lis)
}

// Shutdown drains in-flight calls, falling back to a hard stop when the
// context expires first.
func (s *Server) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}
