package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// unaryHandler adapts a typed method onto the grpc.MethodDesc handler shape.
// The services here are registered through hand-written descriptors; this
// keeps each method entry to one line instead of a decode/intercept block.
func unaryHandler[Req any](method string, call func(srv any, ctx context.Context, in *Req) (any, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(*Req))
		})
	}
}
