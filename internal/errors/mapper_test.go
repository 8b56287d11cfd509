package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/crush-connector/internal/crush"
	"github.com/oggyb/crush-connector/internal/utils/pagination"
)

func TestMap_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"configuration", &crush.ConfigurationError{Err: crush.ErrNoFutureCheckpoint}, codes.FailedPrecondition},
		{"delivery", &crush.DeliveryError{To: []string{"a@y.edu"}, Err: errors.New("down")}, codes.Unavailable},
		{"person", fmt.Errorf("lookup: %w", crush.ErrPersonNotFound), codes.NotFound},
		{"record", gorm.ErrRecordNotFound, codes.NotFound},
		{"checkpoint", crush.ErrDuplicateCheckpoint, codes.AlreadyExists},
		{"slots", crush.ErrTooManyTargets, codes.InvalidArgument},
		{"name", crush.ErrInvalidName, codes.InvalidArgument},
		{"cursor", pagination.ErrInvalidToken, codes.InvalidArgument},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(Map(tt.err)))
		})
	}
	assert.NoError(t, Map(nil))
}

func TestMap_InvalidTargetCarriesBadRequest(t *testing.T) {
	st := status.Convert(Map(&crush.InvalidTargetError{Email: "eve@evil.com"}))
	require.Equal(t, codes.InvalidArgument, st.Code())
	require.Len(t, st.Details(), 1)

	br, ok := st.Details()[0].(*errdetails.BadRequest)
	require.True(t, ok)
	assert.Equal(t, "eve@evil.com", br.GetFieldViolations()[0].GetDescription())
}

func TestMap_OverLimitCarriesQuotaFailure(t *testing.T) {
	st := status.Convert(Map(&crush.OverLimitError{Quota: crush.Quota{NumUsed: 2, NumAllowed: 3, NumLeft: 1}}))
	require.Equal(t, codes.ResourceExhausted, st.Code())
	require.Len(t, st.Details(), 1)

	qf, ok := st.Details()[0].(*errdetails.QuotaFailure)
	require.True(t, ok)
	assert.Equal(t, "2 of 3 used", qf.GetViolations()[0].GetDescription())
}
