package grpc

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/mvaleed/warden/internal/auth"
	"github.com/mvaleed/warden/internal/domain"
)

// bearerPrefix is the credential scheme expected in the authorization
// metadata value.
const bearerPrefix = "Bearer "

// GatePolicy decides, per full method name, how the authentication gate
// treats a call.
type GatePolicy func(fullMethod string) GateMode

// GateMode is the gate's stance for one RPC service.
type GateMode int

const (
	// GateNone bypasses the gate entirely. The call runs with no identity.
	GateNone GateMode = iota

	// GateOptional attaches an identity when a valid non-anonymous bearer
	// token is present, but never rejects the call.
	GateOptional

	// GateRequired enforces the full contract: missing or malformed
	// credentials close the call Unauthenticated, an anonymous identity
	// closes it PermissionDenied, and the handler only ever runs with an
	// identity attached.
	GateRequired
)

// UnaryAuth builds the per-call authentication gate. Exactly one terminal
// outcome is produced per call: either the call is closed with a status
// error before the handler executes, or the handler executes with the
// identity attached to its context. The gate never closes a call and then
// still invokes the handler.
func UnaryAuth(tokens *auth.TokenManager, policy GatePolicy) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		mode := policy(info.FullMethod)
		if mode == GateNone {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		token, ok := bearerToken(md)
		if !ok {
			if mode == GateOptional {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing bearer credentials")
		}

		identity, err := tokens.ValidateToken(token)
		if err != nil {
			if mode == GateOptional {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		// An anonymous identity is authenticated but never authorized.
		if identity.HasAuthority(domain.RoleAnonymous) {
			if mode == GateOptional {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.PermissionDenied, "anonymous access denied")
		}

		return handler(auth.WithIdentity(ctx, identity), req)
	}
}

// bearerToken extracts the bearer token from call metadata. The canonical
// header key is tried first, then the lower-cased fallback: metadata
// transports are not guaranteed case-preserving. A value without the scheme
// prefix, or with nothing but whitespace after it, yields no token.
func bearerToken(md metadata.MD) (string, bool) {
	values := md["Authorization"]
	if len(values) == 0 {
		values = md["authorization"]
	}
	if len(values) == 0 {
		return "", false
	}

	value := values[0]
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}

	token := value[len(bearerPrefix):]
	if strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

// UnaryLogging logs every request with its method and outcome.
func UnaryLogging(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			logger.ErrorContext(ctx, "grpc request failed",
				slog.String("method", info.FullMethod),
				slog.String("error", err.Error()),
			)
			return resp, err
		}
		logger.DebugContext(ctx, "grpc request",
			slog.String("method", info.FullMethod),
		)
		return resp, nil
	}
}

// UnaryRecovery converts handler panics into Internal status errors.
func UnaryRecovery(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "grpc panic recovered",
					slog.String("method", info.FullMethod),
					slog.Any("panic", r),
				)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
