package oncall

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/oncall/internal/core/config"
	"github.com/colonyops/oncall/internal/core/rotation"
	"github.com/colonyops/oncall/internal/store/yamlfile"
)

// ErrConflictingCounts is returned when both a shift count and a coverage
// target are requested.
var ErrConflictingCounts = errors.New("shift count and ensure-weeks are mutually exclusive")

// RotationService reads and extends the on-call schedule files.
type RotationService struct {
	config *config.Config
	log    zerolog.Logger
}

// NewRotationService creates a new RotationService.
func NewRotationService(cfg *config.Config, log zerolog.Logger) *RotationService {
	return &RotationService{config: cfg, log: log}
}

// Schedule loads the schedule file. A missing file is an empty schedule.
func (s *RotationService) Schedule() (rotation.Schedule, error) {
	return yamlfile.LoadSchedule(s.config.RotationFile())
}

// Members loads the member pool.
func (s *RotationService) Members() (rotation.Pool, error) {
	return yamlfile.LoadMembers(s.config.MembersFile())
}

// ExtendOptions selects how many shifts to add. At most one field may be set;
// with neither, the configured default count is used.
type ExtendOptions struct {
	Shifts      int
	EnsureWeeks int
}

// ExtendPlan is a proposed extension that has not been written yet.
type ExtendPlan struct {
	Existing rotation.Schedule
	Added    []rotation.Shift
	// Target is the coverage goal when EnsureWeeks was used.
	Target *time.Time
}

// Schedule returns the existing shifts followed by the added ones.
func (p ExtendPlan) Schedule() rotation.Schedule {
	return append(slices.Clone(p.Existing), p.Added...)
}

// PlanExtension computes the shifts to append without touching disk.
func (s *RotationService) PlanExtension(opts ExtendOptions, now time.Time) (ExtendPlan, error) {
	if opts.Shifts != 0 && opts.EnsureWeeks != 0 {
		return ExtendPlan{}, ErrConflictingCounts
	}
	if opts.Shifts < 0 || opts.EnsureWeeks < 0 {
		return ExtendPlan{}, fmt.Errorf("shift count and ensure-weeks cannot be negative")
	}

	schedule, err := s.Schedule()
	if err != nil {
		return ExtendPlan{}, err
	}
	pool, err := s.Members()
	if err != nil {
		return ExtendPlan{}, err
	}

	for _, id := range pool.Departed(schedule.Upcoming(now)) {
		s.log.Warn().Str("member", id).Msg("upcoming shift includes someone no longer in the member pool")
	}

	shiftLength := s.config.Rotation.ShiftLength()
	plan := ExtendPlan{Existing: schedule}

	n := s.config.Rotation.DefaultShifts
	switch {
	case opts.Shifts > 0:
		n = opts.Shifts
	case opts.EnsureWeeks > 0:
		target := now.Add(time.Duration(opts.EnsureWeeks) * rotation.Week)
		plan.Target = &target

		n, err = rotation.CoverageCount(target, shiftLength, schedule)
		if err != nil {
			return ExtendPlan{}, err
		}
		if n == 0 {
			s.log.Info().Int("weeks", opts.EnsureWeeks).Msg("schedule already covers the requested weeks")
			return plan, nil
		}
		s.log.Info().Int("weeks", opts.EnsureWeeks).Int("shifts", n).Msg("adding shifts to cover the requested weeks")
	}

	seq, err := rotation.Extend(schedule, pool, shiftLength, s.config.Rotation.PeoplePerShift, now)
	if err != nil {
		return ExtendPlan{}, err
	}
	plan.Added = rotation.Take(seq, n)

	return plan, nil
}

// Apply writes the extended schedule. Plans that add nothing are a no-op.
func (s *RotationService) Apply(plan ExtendPlan) error {
	if len(plan.Added) == 0 {
		return nil
	}

	path := s.config.RotationFile()
	if err := yamlfile.SaveSchedule(path, plan.Schedule()); err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}

	s.log.Info().Str("path", path).Int("added", len(plan.Added)).Msg("schedule extended")
	return nil
}
