package notify

import (
	"slices"
	"strings"

	"github.com/colonyops/oncall/internal/core/advisory"
)

// Decision is what the reconciler chose to do with one advisory.
type Decision string

const (
	// DecisionSeen means the advisory was handled on an earlier run.
	DecisionSeen Decision = "seen"
	// DecisionCovered means someone on call already collaborates on it.
	DecisionCovered Decision = "covered"
	// DecisionNotify means the on-call members must be told about it.
	DecisionNotify Decision = "notify"
)

// Outcome pairs an advisory with the decision made for it.
type Outcome struct {
	Item     advisory.Item `json:"item"`
	Decision Decision      `json:"decision"`
}

// Notification is one message to send, naming a single advisory.
type Notification struct {
	Item       advisory.Item `json:"item"`
	Recipients []string      `json:"recipients"`
}

// Plan is the result of reconciling one fetch against the saved state.
type Plan struct {
	Outcomes      []Outcome      `json:"outcomes"`
	Notifications []Notification `json:"notifications"`
}

// Reconcile decides, for every open advisory, whether a notification is
// needed. Items are processed in id order so output is stable; duplicate ids
// are collapsed. An advisory is skipped when it was seen before or when an
// on-call member is already a collaborator; otherwise one notification
// addressed to the whole on-call shift is planned.
func Reconcile(items []advisory.Item, onCall []string, state State) Plan {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b advisory.Item) int {
		return strings.Compare(a.ID, b.ID)
	})
	sorted = slices.CompactFunc(sorted, func(a, b advisory.Item) bool {
		return a.ID == b.ID
	})

	recipients := slices.Clone(onCall)
	slices.Sort(recipients)
	recipients = slices.Compact(recipients)

	plan := Plan{Outcomes: make([]Outcome, 0, len(sorted))}
	for _, item := range sorted {
		decision := DecisionNotify
		switch {
		case state.Seen(item.ID):
			decision = DecisionSeen
		case item.Involves(onCall):
			decision = DecisionCovered
		}

		plan.Outcomes = append(plan.Outcomes, Outcome{Item: item, Decision: decision})
		if decision == DecisionNotify {
			plan.Notifications = append(plan.Notifications, Notification{
				Item:       item,
				Recipients: slices.Clone(recipients),
			})
		}
	}

	return plan
}

// Commit derives the next state after the plan's notifications were sent.
// The seen set is rebuilt from this run's advisories, so ones that are no
// longer open drop out, and advisories in failed are left out so the next run
// retries them. The nag timestamp is carried over untouched.
func (p Plan) Commit(state State, failed map[string]bool) State {
	seen := make([]string, 0, len(p.Outcomes))
	for _, o := range p.Outcomes {
		if failed[o.Item.ID] {
			continue
		}
		seen = append(seen, o.Item.ID)
	}

	return State{
		SeenIDs:       seen,
		LastGateAlert: state.LastGateAlert,
	}
}
