package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mvaleed/warden/internal/service"
	"github.com/mvaleed/warden/internal/storage"
)

// UserAPI is the administrative user management RPC surface. Every method
// sits behind the required gate mode.
type UserAPI interface {
	CreateUser(ctx context.Context, in *UserMessage) (*UserMessage, error)
	UpdateUser(ctx context.Context, in *UserMessage) (*UserMessage, error)
	GetUser(ctx context.Context, in *StringMessage) (*UserMessage, error)
	ListUsers(ctx context.Context, in *PageRequest) (*UserList, error)
	DeleteUser(ctx context.Context, in *StringMessage) (*Empty, error)
	ListAuthorities(ctx context.Context, in *Empty) (*AuthorityList, error)
}

// UserServer exposes UserService over the wire.
type UserServer struct {
	users *service.UserService
}

func NewUserServer(users *service.UserService) *UserServer {
	return &UserServer{users: users}
}

func (s *UserServer) CreateUser(ctx context.Context, in *UserMessage) (*UserMessage, error) {
	user, err := s.users.CreateUser(ctx, service.CreateUserInput{
		ID:          opt(in.ID),
		Login:       in.Login,
		Email:       in.Email,
		FirstName:   opt(in.FirstName),
		LastName:    opt(in.LastName),
		ImageURL:    opt(in.ImageURL),
		LangKey:     opt(in.LangKey),
		Authorities: in.Authorities,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return projectUser(user), nil
}

func (s *UserServer) UpdateUser(ctx context.Context, in *UserMessage) (*UserMessage, error) {
	user, err := s.users.UpdateUser(ctx, service.UpdateUserInput{
		ID:          in.ID,
		Login:       in.Login,
		Email:       in.Email,
		FirstName:   opt(in.FirstName),
		LastName:    opt(in.LastName),
		ImageURL:    opt(in.ImageURL),
		LangKey:     opt(in.LangKey),
		Activated:   in.Activated,
		Authorities: in.Authorities,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return projectUser(user), nil
}

func (s *UserServer) GetUser(ctx context.Context, in *StringMessage) (*UserMessage, error) {
	user, err := s.users.GetUser(ctx, in.Value)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return projectUser(user), nil
}

func (s *UserServer) ListUsers(ctx context.Context, in *PageRequest) (*UserList, error) {
	users, err := s.users.ListUsers(ctx, storage.PageRequest{Page: in.Page, Size: in.Size})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &UserList{Users: projectUsers(users)}, nil
}

func (s *UserServer) DeleteUser(ctx context.Context, in *StringMessage) (*Empty, error) {
	if err := s.users.DeleteUser(ctx, in.Value); err != nil {
		return nil, mapDomainError(err)
	}
	return &Empty{}, nil
}

func (s *UserServer) ListAuthorities(ctx context.Context, _ *Empty) (*AuthorityList, error) {
	authorities, err := s.users.Authorities(ctx)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &AuthorityList{Authorities: authorities}, nil
}

// UserServiceName is the fully qualified RPC service name; the gate policy
// keys off it.
const UserServiceName = "warden.v1.UserService"

var userServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserAPI)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateUser", Handler: unaryHandler("/"+UserServiceName+"/CreateUser",
			func(srv any, ctx context.Context, in *UserMessage) (any, error) {
				return srv.(UserAPI).CreateUser(ctx, in)
			})},
		{MethodName: "UpdateUser", Handler: unaryHandler("/"+UserServiceName+"/UpdateUser",
			func(srv any, ctx context.Context, in *UserMessage) (any, error) {
				return srv.(UserAPI).UpdateUser(ctx, in)
			})},
		{MethodName: "GetUser", Handler: unaryHandler("/"+UserServiceName+"/GetUser",
			func(srv any, ctx context.Context, in *StringMessage) (any, error) {
				return srv.(UserAPI).GetUser(ctx, in)
			})},
		{MethodName: "ListUsers", Handler: unaryHandler("/"+UserServiceName+"/ListUsers",
			func(srv any, ctx context.Context, in *PageRequest) (any, error) {
				return srv.(UserAPI).ListUsers(ctx, in)
			})},
		{MethodName: "DeleteUser", Handler: unaryHandler("/"+UserServiceName+"/DeleteUser",
			func(srv any, ctx context.Context, in *StringMessage) (any, error) {
				return srv.(UserAPI).DeleteUser(ctx, in)
			})},
		{MethodName: "ListAuthorities", Handler: unaryHandler("/"+UserServiceName+"/ListAuthorities",
			func(srv any, ctx context.Context, in *Empty) (any, error) {
				return srv.(UserAPI).ListAuthorities(ctx, in)
			})},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterUserServer attaches the user service to a gRPC server.
func RegisterUserServer(s grpc.ServiceRegistrar, srv UserAPI) {
	s.RegisterService(&userServiceDesc, srv)
}
