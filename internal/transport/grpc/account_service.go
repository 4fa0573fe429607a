package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mvaleed/warden/internal/service"
)

// AccountAPI is the account self-service RPC surface.
type AccountAPI interface {
	Register(ctx context.Context, in *UserMessage) (*Empty, error)
	Activate(ctx context.Context, in *StringMessage) (*UserMessage, error)
	IsAuthenticated(ctx context.Context, in *Empty) (*StringMessage, error)
	GetAccount(ctx context.Context, in *Empty) (*UserMessage, error)
	SaveAccount(ctx context.Context, in *UserMessage) (*Empty, error)
	ChangePassword(ctx context.Context, in *StringMessage) (*Empty, error)
	RequestPasswordReset(ctx context.Context, in *StringMessage) (*Empty, error)
	FinishPasswordReset(ctx context.Context, in *KeyAndPassword) (*Empty, error)
}

// AccountServer exposes AccountService over the wire.
type AccountServer struct {
	accounts *service.AccountService
}

func NewAccountServer(accounts *service.AccountService) *AccountServer {
	return &AccountServer{accounts: accounts}
}

func (s *AccountServer) Register(ctx context.Context, in *UserMessage) (*Empty, error) {
	_, err := s.accounts.Register(ctx, service.RegisterInput{
		Login:     in.Login,
		Email:     in.Email,
		Password:  in.Password,
		FirstName: opt(in.FirstName),
		LastName:  opt(in.LastName),
		ImageURL:  opt(in.ImageURL),
		LangKey:   opt(in.LangKey),
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &Empty{}, nil
}

func (s *AccountServer) Activate(ctx context.Context, in *StringMessage) (*UserMessage, error) {
	user, err := s.accounts.Activate(ctx, in.Value)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return projectUser(user), nil
}

func (s *AccountServer) IsAuthenticated(ctx context.Context, _ *Empty) (*StringMessage, error) {
	return &StringMessage{Value: s.accounts.AuthenticatedLogin(ctx)}, nil
}

func (s *AccountServer) GetAccount(ctx context.Context, _ *Empty) (*UserMessage, error) {
	user, err := s.accounts.GetAccount(ctx)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return projectUser(user), nil
}

func (s *AccountServer) SaveAccount(ctx context.Context, in *UserMessage) (*Empty, error) {
	_, err := s.accounts.SaveAccount(ctx, service.SaveAccountInput{
		Email:     opt(in.Email),
		FirstName: opt(in.FirstName),
		LastName:  opt(in.LastName),
		ImageURL:  opt(in.ImageURL),
		LangKey:   opt(in.LangKey),
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &Empty{}, nil
}

func (s *AccountServer) ChangePassword(ctx context.Context, in *StringMessage) (*Empty, error) {
	if err := s.accounts.ChangePassword(ctx, in.Value); err != nil {
		return nil, mapDomainError(err)
	}
	return &Empty{}, nil
}

func (s *AccountServer) RequestPasswordReset(ctx context.Context, in *StringMessage) (*Empty, error) {
	if _, err := s.accounts.RequestPasswordReset(ctx, in.Value); err != nil {
		return nil, mapDomainError(err)
	}
	return &Empty{}, nil
}

func (s *AccountServer) FinishPasswordReset(ctx context.Context, in *KeyAndPassword) (*Empty, error) {
	if _, err := s.accounts.FinishPasswordReset(ctx, in.Key, in.NewPassword); err != nil {
		return nil, mapDomainError(err)
	}
	return &Empty{}, nil
}

// AccountServiceName is the fully qualified RPC service name; the gate
// policy keys off it.
const AccountServiceName = "warden.v1.AccountService"

var accountServiceDesc = grpc.ServiceDesc{
	ServiceName: AccountServiceName,
	HandlerType: (*AccountAPI)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler("/"+AccountServiceName+"/Register",
			func(srv any, ctx context.Context, in *UserMessage) (any, error) {
				return srv.(AccountAPI).Register(ctx, in)
			})},
		{MethodName: "Activate", Handler: unaryHandler("/"+AccountServiceName+"/Activate",
			func(srv any, ctx context.Context, in *StringMessage) (any, error) {
				return srv.(AccountAPI).Activate(ctx, in)
			})},
		{MethodName: "IsAuthenticated", Handler: unaryHandler("/"+AccountServiceName+"/IsAuthenticated",
			func(srv any, ctx context.Context, in *Empty) (any, error) {
				return srv.(AccountAPI).IsAuthenticated(ctx, in)
			})},
		{MethodName: "GetAccount", Handler: unaryHandler("/"+AccountServiceName+"/GetAccount",
			func(srv any, ctx context.Context, in *Empty) (any, error) {
				return srv.(AccountAPI).GetAccount(ctx, in)
			})},
		{MethodName: "SaveAccount", Handler: unaryHandler("/"+AccountServiceName+"/SaveAccount",
			func(srv any, ctx context.Context, in *UserMessage) (any, error) {
				return srv.(AccountAPI).SaveAccount(ctx, in)
			})},
		{MethodName: "ChangePassword", Handler: unaryHandler("/"+AccountServiceName+"/ChangePassword",
			func(srv any, ctx context.Context, in *StringMessage) (any, error) {
				return srv.(AccountAPI).ChangePassword(ctx, in)
			})},
		{MethodName: "RequestPasswordReset", Handler: unaryHandler("/"+AccountServiceName+"/RequestPasswordReset",
			func(srv any, ctx context.Context, in *StringMessage) (any, error) {
				return srv.(AccountAPI).RequestPasswordReset(ctx, in)
			})},
		{MethodName: "FinishPasswordReset", Handler: unaryHandler("/"+AccountServiceName+"/FinishPasswordReset",
			func(srv any, ctx context.Context, in *KeyAndPassword) (any, error) {
				return srv.(AccountAPI).FinishPasswordReset(ctx, in)
			})},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterAccountServer attaches the account service to a gRPC server.
func RegisterAccountServer(s grpc.ServiceRegistrar, srv AccountAPI) {
	s.RegisterService(&accountServiceDesc, srv)
}
