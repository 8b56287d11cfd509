// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"gorm.io/gorm"

	"github.com/oggyb/crush-connector/internal/crush"
	"github.com/oggyb/crush-connector/internal/utils/pagination"
)

// Map converts domain/repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var (
		invalid  *crush.InvalidTargetError
		over     *crush.OverLimitError
		delivery *crush.DeliveryError
		cfgErr   *crush.ConfigurationError
	)

	switch {
	case errors.As(err, &invalid):
		return withDetails(codes.InvalidArgument, err.Error(), &errdetails.BadRequest{
			FieldViolations: []*errdetails.BadRequest_FieldViolation{{
				Field:       "targets",
				Description: invalid.Email,
			}},
		})

	case errors.As(err, &over):
		return withDetails(codes.ResourceExhausted, err.Error(), &errdetails.QuotaFailure{
			Violations: []*errdetails.QuotaFailure_Violation{{
				Subject:     "crushes",
				Description: fmt.Sprintf("%d of %d used", over.Quota.NumUsed, over.Quota.NumAllowed),
			}},
		})

	case errors.As(err, &cfgErr):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.As(err, &delivery):
		return status.Error(codes.Unavailable, err.Error())

	case errors.Is(err, crush.ErrPersonNotFound):
		return status.Error(codes.NotFound, "person not found")

	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, crush.ErrDuplicateCheckpoint):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, crush.ErrTooManyTargets),
		errors.Is(err, crush.ErrInvalidName),
		errors.Is(err, pagination.ErrInvalidToken):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// withDetails attaches a structured detail; if that fails the plain status
// is still returned.
func withDetails(code codes.Code, msg string, detail protoadapt.MessageV1) error {
	st, err := status.New(code, msg).WithDetails(detail)
	if err != nil {
		return status.Error(code, msg)
	}
	return st.Err()
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}
