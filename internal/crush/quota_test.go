package crush

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	s, err := NewSchedule([]time.Time{day(10), day(20)}, nil)
	require.NoError(t, err)

	lastEpoch := at(9, 12)
	thisEpoch := at(12, 12)
	now := at(15, 12)

	tests := []struct {
		name string
		u    Usage
		n    int
		want Decision
	}{
		{"first submission within allowance", Usage{Allowed: 3}, 2, Accept},
		{"first submission over allowance", Usage{Allowed: 3}, 4, Reject},
		{"fits remaining", Usage{Allowed: 3, Used: 1, LastSubmission: &thisEpoch}, 2, Accept},
		{"over remaining same epoch", Usage{Allowed: 3, Used: 2, LastSubmission: &thisEpoch}, 2, Reject},
		{"over remaining after checkpoint", Usage{Allowed: 3, Used: 3, LastSubmission: &lastEpoch}, 1, ResetAndAccept},
		{"over full allowance even after reset", Usage{Allowed: 3, Used: 3, LastSubmission: &lastEpoch}, 4, Reject},
		{"zero allowance", Usage{Allowed: 0}, 1, Reject},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.u, tc.n, s, now))
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "accept", Accept.String())
	assert.Equal(t, "reset_and_accept", ResetAndAccept.String())
	assert.Equal(t, "reject", Reject.String())
}
