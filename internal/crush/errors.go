package crush

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oggyb/crush-connector/internal/repository"
)

var (
	// ErrPersonNotFound is returned when the submitting person is unknown.
	ErrPersonNotFound = errors.New("person not found")

	// ErrTooManyTargets is returned when a submission has more slots than configured.
	ErrTooManyTargets = errors.New("too many crush targets")

	// ErrNoFutureCheckpoint means no refresh checkpoint is provisioned on or after today.
	ErrNoFutureCheckpoint = errors.New("no future refresh checkpoint provisioned")

	// ErrDuplicateCheckpoint is returned when two checkpoints share a date.
	ErrDuplicateCheckpoint = repository.ErrDuplicateCheckpoint
)

// InvalidTargetError names a target email that cannot be resolved or
// provisioned. The caller should ask the submitter to correct it.
type InvalidTargetError struct {
	Email  string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid crush target %q", e.Email)
	}
	return fmt.Sprintf("invalid crush target %q: %s", e.Email, e.Reason)
}

// OverLimitError is returned when a submission exceeds the remaining
// allowance within the current epoch. Nothing was recorded.
type OverLimitError struct {
	Quota Quota
}

func (e *OverLimitError) Error() string {
	return fmt.Sprintf("crush limit reached: %d of %d used, %d left until %s",
		e.Quota.NumUsed, e.Quota.NumAllowed, e.Quota.NumLeft, e.Quota.NextRefresh.Format(time.DateOnly))
}

// DeliveryError wraps a mail transport failure. The submission that
// triggered it was rolled back.
type DeliveryError struct {
	To  []string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver mail to %s: %v", strings.Join(e.To, ", "), e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ConfigurationError is a fatal precondition violation, not recoverable
// by the user.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Err.Error() }

func (e *ConfigurationError) Unwrap() error { return e.Err }
