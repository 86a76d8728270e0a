package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/oncall/internal/core/config"
)

func testConfig(t *testing.T, schedule, members string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Dir = t.TempDir()
	if schedule != "" {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, cfg.Rotation.File), []byte(schedule), 0o644))
	}
	if members != "" {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, cfg.Rotation.MembersFile), []byte(members), 0o644))
	}
	return &cfg
}

func items(r Result) map[string]CheckItem {
	out := make(map[string]CheckItem, len(r.Items))
	for _, item := range r.Items {
		out[item.Label] = item
	}
	return out
}

const twoShifts = `
rotations:
  - start_time: 2025-06-01T00:00:00Z
    members: [alice, bob]
  - start_time: 2025-06-15T00:00:00Z
    members: [carol, dave]
`

func TestRotationCheck_Healthy(t *testing.T) {
	cfg := testConfig(t, twoShifts, "members: [alice, bob, carol, dave]\n")
	now := func() time.Time { return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) }

	got := items(NewRotationCheck(cfg, now).Run(context.Background()))

	assert.Equal(t, StatusPass, got["members"].Status)
	assert.Equal(t, StatusPass, got["schedule"].Status)
	assert.Equal(t, "2 shifts", got["schedule"].Detail)
	assert.Equal(t, StatusPass, got["current shift"].Status)
	assert.Contains(t, got["current shift"].Detail, "alice, bob")
	assert.Equal(t, StatusPass, got["departed members"].Status)
	// Ends 2025-06-29, 27 days out, beyond the 14 day threshold.
	assert.Equal(t, StatusPass, got["coverage"].Status)
	assert.Equal(t, "schedule ends 2025-06-29", got["coverage"].Detail)
}

func TestRotationCheck_RunningShort(t *testing.T) {
	cfg := testConfig(t, twoShifts, "members: [alice, bob, carol]\n")
	now := func() time.Time { return time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC) }

	got := items(NewRotationCheck(cfg, now).Run(context.Background()))

	assert.Equal(t, StatusWarn, got["coverage"].Status)
	assert.Contains(t, got["coverage"].Detail, "9 days left")
	assert.Equal(t, StatusWarn, got["departed members"].Status)
	assert.Contains(t, got["departed members"].Detail, "dave")
}

func TestRotationCheck_Ended(t *testing.T) {
	cfg := testConfig(t, twoShifts, "members: [alice, bob, carol, dave]\n")
	now := func() time.Time { return time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC) }

	got := items(NewRotationCheck(cfg, now).Run(context.Background()))
	assert.Equal(t, StatusFail, got["coverage"].Status)
}

func TestRotationCheck_NotStarted(t *testing.T) {
	cfg := testConfig(t, twoShifts, "members: [alice, bob, carol, dave]\n")
	now := func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }

	got := items(NewRotationCheck(cfg, now).Run(context.Background()))
	assert.Equal(t, StatusWarn, got["current shift"].Status)
}

func TestRotationCheck_MissingFiles(t *testing.T) {
	cfg := testConfig(t, "", "")

	result := NewRotationCheck(cfg, nil).Run(context.Background())
	got := items(result)

	assert.Equal(t, StatusFail, got["members"].Status)
	assert.Equal(t, StatusFail, got["schedule"].Status)
	assert.Contains(t, got["schedule"].Detail, "oncall extend")
	assert.Len(t, result.Items, 2)
}

func TestRotationCheck_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t, "rotations:\n  - start_time: 2025-06-01T00:00:00Z\n    members: []\n", "members: [alice]\n")

	got := items(NewRotationCheck(cfg, nil).Run(context.Background()))
	assert.Equal(t, StatusFail, got["schedule"].Status)
	assert.Contains(t, got["schedule"].Detail, "invalid schedule")
}
