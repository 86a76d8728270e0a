package rotation

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// CoverageCount returns how many shifts must be appended so the schedule
// runs until at least target. Every step rounds up: the gap is taken in whole
// days, then whole weeks, then whole shifts.
func CoverageCount(target time.Time, shiftLength time.Duration, schedule Schedule) (int, error) {
	if shiftLength <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidShiftLength, shiftLength)
	}

	end, ok := schedule.End(shiftLength)
	if !ok {
		return 0, ErrNoExistingSchedule
	}

	if !end.Before(target) {
		return 0, nil
	}

	days := ceilDiv(target.Sub(end), day)
	weeks := ceilDiv(time.Duration(days)*day, Week)
	return int(ceilDiv(time.Duration(weeks)*Week, shiftLength)), nil
}

// ceilDiv divides two positive durations, rounding up.
func ceilDiv(a, b time.Duration) int64 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return int64(q)
}
