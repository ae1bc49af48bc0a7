package grpcapi

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/roach88/timelockidx/internal/engine"
	"github.com/roach88/timelockidx/internal/registry"
)

// mapErr converts registry and engine errors to gRPC status errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case registry.IsIndexNotFound(err):
		return status.Error(codes.OutOfRange, err.Error())
	case registry.IsIdentityNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	switch engine.CodeOf(err) {
	case engine.ErrCodeUnauthorized:
		return status.Error(codes.PermissionDenied, err.Error())
	case engine.ErrCodeOperationExists:
		return status.Error(codes.AlreadyExists, err.Error())
	case engine.ErrCodeInsufficientDelay, engine.ErrCodeInvalidBatchLength, engine.ErrCodeInvalidValue:
		return status.Error(codes.InvalidArgument, err.Error())
	case engine.ErrCodeUnknownOperation:
		return status.Error(codes.NotFound, err.Error())
	case engine.ErrCodeNotReady, engine.ErrCodeMissingDependency:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func invalidArgument(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

// Code returns the gRPC status code carried by err, codes.OK for nil and
// codes.Unknown for non-status errors.
func Code(err error) codes.Code {
	return status.Code(err)
}
