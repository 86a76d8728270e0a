// Package rotation defines the on-call schedule model and the algorithms
// that extend it.
package rotation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
)

// Week is the length of one calendar week. Shift lengths are configured
// in whole weeks.
const Week = 7 * 24 * time.Hour

var (
	// ErrInsufficientMembers is returned when a shift needs more people than
	// the member pool holds.
	ErrInsufficientMembers = errors.New("insufficient members")
	// ErrNoExistingSchedule is returned when a calculation needs at least one
	// shift to anchor on.
	ErrNoExistingSchedule = errors.New("no existing schedule")
	// ErrInvalidShiftLength is returned for zero or negative shift lengths.
	ErrInvalidShiftLength = errors.New("invalid shift length")
)

// Shift is one scheduled interval and the people on call during it.
// Shifts are never edited once written; schedules only grow.
type Shift struct {
	Start   time.Time `yaml:"start_time" json:"start_time"`
	Members []string  `yaml:"members"    json:"members"`
}

// Includes reports whether member is on this shift.
func (s Shift) Includes(member string) bool {
	return slices.Contains(s.Members, member)
}

// Schedule is every shift, past and future, oldest first.
type Schedule []Shift

// Last returns the most recently starting shift.
func (s Schedule) Last() (Shift, bool) {
	if len(s) == 0 {
		return Shift{}, false
	}
	return s[len(s)-1], true
}

// Current returns the latest shift that has started at or before now.
func (s Schedule) Current(now time.Time) (Shift, bool) {
	var (
		current Shift
		found   bool
	)
	for _, shift := range s {
		if shift.Start.After(now) {
			break
		}
		current = shift
		found = true
	}
	return current, found
}

// Upcoming returns the shifts that start after now.
func (s Schedule) Upcoming(now time.Time) Schedule {
	for i, shift := range s {
		if shift.Start.After(now) {
			return s[i:]
		}
	}
	return nil
}

// End returns the time the final shift ends given a constant shift length.
func (s Schedule) End(shiftLength time.Duration) (time.Time, bool) {
	last, ok := s.Last()
	if !ok {
		return time.Time{}, false
	}
	return last.Start.Add(shiftLength), true
}

// Validate checks the ordering invariant and that every shift is staffed.
func (s Schedule) Validate() error {
	var errs criterio.FieldErrorsBuilder
	for i, shift := range s {
		field := fmt.Sprintf("rotations[%d]", i)
		if shift.Start.IsZero() {
			errs = errs.Append(field+".start_time", fmt.Errorf("start time is required"))
		}
		if len(shift.Members) == 0 {
			errs = errs.Append(field+".members", fmt.Errorf("shift has no members"))
		}
		for j, m := range shift.Members {
			if strings.TrimSpace(m) == "" {
				errs = errs.Append(fmt.Sprintf("%s.members[%d]", field, j), fmt.Errorf("member id is empty"))
			}
		}
		if i > 0 && !shift.Start.After(s[i-1].Start) {
			errs = errs.Append(field+".start_time", fmt.Errorf("starts at %s, not after previous shift at %s",
				shift.Start.Format(time.RFC3339), s[i-1].Start.Format(time.RFC3339)))
		}
	}
	return errs.ToError()
}

// Pool is the ordered set of people eligible for future shifts. Order is
// significant: it breaks ties between members with equal service history.
type Pool []string

// Contains reports whether member is in the pool.
func (p Pool) Contains(member string) bool {
	return slices.Contains(p, member)
}

// Validate rejects empty pools, blank ids and duplicates.
func (p Pool) Validate() error {
	var errs criterio.FieldErrorsBuilder
	if len(p) == 0 {
		errs = errs.Append("members", fmt.Errorf("member list is empty"))
	}

	seen := make(map[string]bool, len(p))
	for i, m := range p {
		field := fmt.Sprintf("members[%d]", i)
		if strings.TrimSpace(m) == "" {
			errs = errs.Append(field, fmt.Errorf("member id is empty"))
			continue
		}
		if seen[m] {
			errs = errs.Append(field, fmt.Errorf("duplicate member %q", m))
		}
		seen[m] = true
	}
	return errs.ToError()
}

// Departed returns members scheduled on the given shifts who are no longer
// in the pool, in first-seen order.
func (p Pool) Departed(shifts Schedule) []string {
	var out []string
	for _, shift := range shifts {
		for _, m := range shift.Members {
			if !p.Contains(m) && !slices.Contains(out, m) {
				out = append(out, m)
			}
		}
	}
	return out
}
