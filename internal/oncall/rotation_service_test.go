package oncall

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/oncall/internal/core/rotation"
	"github.com/colonyops/oncall/internal/store/yamlfile"
)

func newRotationService(t *testing.T, schedule, members string) *RotationService {
	t.Helper()
	cfg := testConfig(t)
	if schedule != "" {
		writeFile(t, cfg.RotationFile(), schedule)
	}
	writeFile(t, cfg.MembersFile(), members)
	return NewRotationService(cfg, zerolog.Nop())
}

func TestPlanExtension_Default(t *testing.T) {
	svc := newRotationService(t, "", "members: [alice, bob, carol, dave]\n")
	// Wednesday; an empty schedule starts on the preceding Sunday.
	now := sunday.Add(3 * 24 * time.Hour)

	plan, err := svc.PlanExtension(ExtendOptions{}, now)
	require.NoError(t, err)

	require.Len(t, plan.Added, 5)
	assert.Nil(t, plan.Target)
	assert.True(t, sunday.Equal(plan.Added[0].Start))
	assert.Equal(t, []string{"alice", "bob"}, plan.Added[0].Members)
	assert.Equal(t, []string{"carol", "dave"}, plan.Added[1].Members)
	assert.Equal(t, []string{"alice", "bob"}, plan.Added[2].Members)
	assert.True(t, sunday.Add(4*2*rotation.Week).Equal(plan.Added[4].Start))
}

func TestPlanExtension_ContinuesExisting(t *testing.T) {
	existing := `
rotations:
  - start_time: 2025-06-01T00:00:00Z
    members: [alice, bob]
`
	svc := newRotationService(t, existing, "members: [alice, bob, carol]\n")

	plan, err := svc.PlanExtension(ExtendOptions{Shifts: 2}, sunday)
	require.NoError(t, err)

	require.Len(t, plan.Added, 2)
	assert.True(t, sunday.Add(2*rotation.Week).Equal(plan.Added[0].Start))
	// carol has never served so goes first.
	assert.Equal(t, "carol", plan.Added[0].Members[0])
	assert.Len(t, plan.Schedule(), 3)
}

func TestPlanExtension_EnsureWeeks(t *testing.T) {
	existing := `
rotations:
  - start_time: 2025-06-01T00:00:00Z
    members: [alice, bob]
`
	svc := newRotationService(t, existing, "members: [alice, bob, carol]\n")

	t.Run("adds enough to cover", func(t *testing.T) {
		// Existing coverage ends 2025-06-15; 6 weeks from sunday is 2025-07-13.
		// That is 28 days short: 4 weeks, 2 shifts.
		plan, err := svc.PlanExtension(ExtendOptions{EnsureWeeks: 6}, sunday)
		require.NoError(t, err)
		require.NotNil(t, plan.Target)
		assert.Len(t, plan.Added, 2)

		end, _ := plan.Schedule().End(2 * rotation.Week)
		assert.False(t, end.Before(*plan.Target))
	})

	t.Run("already covered", func(t *testing.T) {
		plan, err := svc.PlanExtension(ExtendOptions{EnsureWeeks: 1}, sunday)
		require.NoError(t, err)
		assert.Empty(t, plan.Added)
		require.NoError(t, svc.Apply(plan))
	})
}

func TestPlanExtension_Errors(t *testing.T) {
	t.Run("mutually exclusive", func(t *testing.T) {
		svc := newRotationService(t, "", "members: [alice, bob]\n")
		_, err := svc.PlanExtension(ExtendOptions{Shifts: 1, EnsureWeeks: 1}, sunday)
		require.ErrorIs(t, err, ErrConflictingCounts)
	})

	t.Run("ensure weeks needs a schedule", func(t *testing.T) {
		svc := newRotationService(t, "", "members: [alice, bob]\n")
		_, err := svc.PlanExtension(ExtendOptions{EnsureWeeks: 4}, sunday)
		require.ErrorIs(t, err, rotation.ErrNoExistingSchedule)
	})

	t.Run("pool too small", func(t *testing.T) {
		svc := newRotationService(t, "", "members: [alice]\n")
		_, err := svc.PlanExtension(ExtendOptions{}, sunday)
		require.ErrorIs(t, err, rotation.ErrInsufficientMembers)
	})
}

func TestApply_WritesSchedule(t *testing.T) {
	svc := newRotationService(t, "", "members: [alice, bob]\n")

	plan, err := svc.PlanExtension(ExtendOptions{Shifts: 3}, sunday)
	require.NoError(t, err)
	require.NoError(t, svc.Apply(plan))

	saved, err := yamlfile.LoadSchedule(svc.config.RotationFile())
	require.NoError(t, err)
	assert.Len(t, saved, 3)

	// A second extension continues from what was written.
	plan, err = svc.PlanExtension(ExtendOptions{Shifts: 1}, sunday)
	require.NoError(t, err)
	assert.True(t, sunday.Add(3*2*rotation.Week).Equal(plan.Added[0].Start))
}

func TestApply_NoopLeavesFileAlone(t *testing.T) {
	svc := newRotationService(t, "", "members: [alice, bob]\n")
	require.NoError(t, svc.Apply(ExtendPlan{}))

	_, err := os.Stat(svc.config.RotationFile())
	assert.True(t, os.IsNotExist(err))
}
