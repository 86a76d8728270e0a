package rotation

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

// LastServed maps every pool member to the start of the most recent shift
// they were on. Members who have never served map to the zero time, which
// sorts before any real shift and makes them the most overdue.
func LastServed(schedule Schedule, pool Pool) map[string]time.Time {
	last := make(map[string]time.Time, len(pool))
	for _, m := range pool {
		last[m] = time.Time{}
	}

	// Shifts are oldest first, so later writes win.
	for _, shift := range schedule {
		for _, m := range shift.Members {
			if _, ok := last[m]; ok {
				last[m] = shift.Start
			}
		}
	}

	return last
}

// FairOrder returns the pool sorted by least recent service. Ties keep pool
// order so the result is reproducible.
func FairOrder(schedule Schedule, pool Pool) []string {
	last := LastServed(schedule, pool)
	order := slices.Clone([]string(pool))
	slices.SortStableFunc(order, func(a, b string) int {
		return last[a].Compare(last[b])
	})
	return order
}

// WeekStart returns the most recent Sunday 00:00 UTC at or before t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// NextStart returns where the next appended shift begins: one shift length
// after the last shift, or the start of the current week for an empty
// schedule.
func NextStart(schedule Schedule, shiftLength time.Duration, now time.Time) time.Time {
	if last, ok := schedule.Last(); ok {
		return last.Start.Add(shiftLength)
	}
	return WeekStart(now)
}

// Extend returns an endless sequence of new shifts that continue schedule.
//
// Each shift takes the perShift members at the front of the fairness order
// and then moves them to the back, so everyone serves once before anyone
// serves twice. The sequence depends only on its arguments; ranging over it
// again replays the same shifts.
func Extend(schedule Schedule, pool Pool, shiftLength time.Duration, perShift int, now time.Time) (iter.Seq[Shift], error) {
	if shiftLength <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShiftLength, shiftLength)
	}
	if perShift < 1 || perShift > len(pool) {
		return nil, fmt.Errorf("%w: %d per shift requested, pool has %d", ErrInsufficientMembers, perShift, len(pool))
	}

	order := FairOrder(schedule, pool)
	anchor := NextStart(schedule, shiftLength, now)

	return func(yield func(Shift) bool) {
		start := anchor
		// Popping from the front and pushing to the back of a queue is a
		// rotation, so a cursor over the fixed order is equivalent.
		pos := 0
		for {
			members := make([]string, perShift)
			for i := range members {
				members[i] = order[pos]
				pos = (pos + 1) % len(order)
			}

			if !yield(Shift{Start: start, Members: members}) {
				return
			}
			start = start.Add(shiftLength)
		}
	}, nil
}

// Take collects the first n shifts of seq.
func Take(seq iter.Seq[Shift], n int) []Shift {
	if n <= 0 {
		return nil
	}

	out := make([]Shift, 0, n)
	for shift := range seq {
		out = append(out, shift)
		if len(out) == n {
			break
		}
	}
	return out
}
