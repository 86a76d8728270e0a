package notify

import "time"

// Defaults for the schedule exhaustion nag.
const (
	DefaultNagThreshold = 14 * 24 * time.Hour
	DefaultNagCooldown  = 24 * time.Hour
)

// MaybeAlert decides whether to nag about the schedule running out.
//
// end is when the schedule runs out; nil means there is no schedule at all
// and is always close enough to alert. An alert fires once the remaining time
// is within threshold, at most once per cooldown. When it fires the returned
// state records now; callers must drop that state if the nag fails to send so
// the next run tries again straight away.
func MaybeAlert(end *time.Time, now time.Time, state State, threshold, cooldown time.Duration) (bool, State) {
	if end != nil && end.Sub(now) > threshold {
		return false, state
	}

	if state.LastGateAlert != nil && now.Sub(*state.LastGateAlert) < cooldown {
		return false, state
	}

	return true, state.WithGateAlert(now)
}
