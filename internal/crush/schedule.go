package crush

import (
	"fmt"
	"sort"
	"time"
)

// Schedule is the ordered sequence of refresh checkpoints. Each checkpoint
// is a calendar date; the epoch in force is the span between the latest
// checkpoint on or before today and the next one on or after today.
type Schedule struct {
	dates []time.Time
	loc   *time.Location
}

// NewSchedule sorts dates and rejects duplicates. loc decides what "today"
// means; nil means UTC.
func NewSchedule(dates []time.Time, loc *time.Location) (*Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	sorted := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		sorted = append(sorted, DateOf(d, time.UTC))
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Equal(sorted[i-1]) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCheckpoint, sorted[i].Format(time.DateOnly))
		}
	}
	return &Schedule{dates: sorted, loc: loc}, nil
}

// DateOf truncates t to its calendar date in loc, expressed as UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Dates returns a copy of the sorted checkpoint dates.
func (s *Schedule) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// Next returns the earliest checkpoint on or after today.
func (s *Schedule) Next(now time.Time) (time.Time, error) {
	today := DateOf(now, s.loc)
	i := sort.Search(len(s.dates), func(i int) bool { return !s.dates[i].Before(today) })
	if i == len(s.dates) {
		return time.Time{}, &ConfigurationError{Err: ErrNoFutureCheckpoint}
	}
	return s.dates[i], nil
}

// Last returns the latest checkpoint on or before today.
func (s *Schedule) Last(now time.Time) (time.Time, bool) {
	today := DateOf(now, s.loc)
	i := sort.Search(len(s.dates), func(i int) bool { return s.dates[i].After(today) })
	if i == 0 {
		return time.Time{}, false
	}
	return s.dates[i-1], true
}

// Crossed reports whether a checkpoint has passed since lastSubmission,
// i.e. the latest passed checkpoint is strictly after the submission date.
func (s *Schedule) Crossed(lastSubmission, now time.Time) bool {
	last, ok := s.Last(now)
	if !ok {
		return false
	}
	return last.After(DateOf(lastSubmission, s.loc))
}
