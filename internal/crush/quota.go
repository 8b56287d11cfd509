package crush

import "time"

// Quota is a person's standing in the current epoch.
type Quota struct {
	NumLeft     int
	NumUsed     int
	NumAllowed  int
	NextRefresh time.Time
}

// Usage is the input of a quota decision.
type Usage struct {
	Allowed int
	Used    int
	// LastSubmission is nil when the person never submitted.
	LastSubmission *time.Time
}

// Remaining is what is left of the allowance.
func (u Usage) Remaining() int { return u.Allowed - u.Used }

// Decision is the outcome of evaluating a submission against a quota.
type Decision int

const (
	// Reject leaves everything untouched.
	Reject Decision = iota
	// Accept records the submission within the current usage.
	Accept
	// ResetAndAccept first clears the previous epoch, then records.
	ResetAndAccept
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case ResetAndAccept:
		return "reset_and_accept"
	default:
		return "reject"
	}
}

// Evaluate decides whether n new crushes fit.
//
//   - n within the remaining allowance → Accept.
//   - otherwise, if the person submitted before and a checkpoint passed since
//     then, usage resets and n is checked against the full allowance.
//   - otherwise → Reject.
//
// A person with no prior submission never triggers the reset check.
func Evaluate(u Usage, n int, s *Schedule, now time.Time) Decision {
	if n <= u.Remaining() {
		return Accept
	}
	if u.LastSubmission == nil || !s.Crossed(*u.LastSubmission, now) {
		return Reject
	}
	if n <= u.Allowed {
		return ResetAndAccept
	}
	return Reject
}
