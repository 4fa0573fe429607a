package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mvaleed/warden/internal/domain"
	"github.com/mvaleed/warden/internal/pipeline"
)

// mapDomainError converts domain errors to gRPC status errors. Rejections
// carry a short human-readable detail; anything unexpected collapses to a
// bare Internal so no internals leak into the wire.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, detail(err))
	case errors.Is(err, domain.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, detail(err))
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, detail(err))
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, detail(err))
	case errors.Is(err, domain.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, detail(err))
	}

	return status.Error(codes.Internal, "internal server error")
}

// detail extracts the human-readable rejection text: the failing check's
// name for a pipeline rejection, the error text otherwise.
func detail(err error) string {
	var failure *pipeline.Failure
	if errors.As(err, &failure) {
		return failure.Check
	}
	return err.Error()
}
