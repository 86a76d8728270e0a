package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/oncall/internal/core/config"
	"github.com/colonyops/oncall/internal/core/rotation"
	"github.com/colonyops/oncall/internal/store/yamlfile"
)

const dateLayout = "2006-01-02"

// RotationCheck verifies the schedule and member files and how long the
// schedule still runs.
type RotationCheck struct {
	cfg *config.Config
	now func() time.Time
}

// NewRotationCheck creates a new rotation check.
func NewRotationCheck(cfg *config.Config, now func() time.Time) *RotationCheck {
	if now == nil {
		now = time.Now
	}
	return &RotationCheck{cfg: cfg, now: now}
}

func (c *RotationCheck) Name() string {
	return "Rotation"
}

func (c *RotationCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}
	now := c.now()

	pool, err := yamlfile.LoadMembers(c.cfg.MembersFile())
	if err != nil {
		result.add("members", StatusFail, err.Error())
	} else {
		result.add("members", StatusPass, fmt.Sprintf("%d members", len(pool)))
	}

	schedule, err := yamlfile.LoadSchedule(c.cfg.RotationFile())
	if err != nil {
		result.add("schedule", StatusFail, err.Error())
		return result
	}
	if len(schedule) == 0 {
		result.add("schedule", StatusFail, "no shifts scheduled; run `oncall extend`")
		return result
	}
	result.add("schedule", StatusPass, fmt.Sprintf("%d shifts", len(schedule)))

	active := schedule.Upcoming(now)
	if shift, ok := schedule.Current(now); ok {
		active = append(rotation.Schedule{shift}, active...)
		result.add("current shift", StatusPass, fmt.Sprintf("%s since %s", strings.Join(shift.Members, ", "), shift.Start.UTC().Format(dateLayout)))
	} else {
		result.add("current shift", StatusWarn, "no shift has started yet; advisories will not be routed")
	}

	if pool != nil {
		if departed := pool.Departed(active); len(departed) > 0 {
			result.add("departed members", StatusWarn, fmt.Sprintf("scheduled but not in the pool: %s", strings.Join(departed, ", ")))
		} else {
			result.add("departed members", StatusPass, "")
		}
	}

	end, _ := schedule.End(c.cfg.Rotation.ShiftLength())
	remaining := end.Sub(now)
	detail := fmt.Sprintf("schedule ends %s", end.UTC().Format(dateLayout))
	switch {
	case remaining <= 0:
		result.add("coverage", StatusFail, detail+"; run `oncall extend`")
	case remaining <= c.cfg.Notify.NagThreshold:
		days := int(remaining / (24 * time.Hour))
		result.add("coverage", StatusWarn, fmt.Sprintf("%s (%d days left); run `oncall extend`", detail, days))
	default:
		result.add("coverage", StatusPass, detail)
	}

	return result
}
