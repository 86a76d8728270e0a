package doctor

import (
	"context"
	"fmt"

	"github.com/colonyops/oncall/internal/store/statefile"
)

// StateCheck verifies that the notification state file can be read.
type StateCheck struct {
	store *statefile.Store
}

// NewStateCheck creates a new state check.
func NewStateCheck(store *statefile.Store) *StateCheck {
	return &StateCheck{store: store}
}

func (c *StateCheck) Name() string {
	return "State"
}

func (c *StateCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	state, err := c.store.Load(ctx)
	if err != nil {
		result.add(c.store.Path(), StatusFail, err.Error())
		return result
	}

	detail := fmt.Sprintf("%d seen advisories", len(state.SeenIDs))
	if state.LastGateAlert != nil {
		detail += fmt.Sprintf(", last nag %s", state.LastGateAlert.UTC().Format("2006-01-02 15:04"))
	}
	result.add(c.store.Path(), StatusPass, detail)

	return result
}
