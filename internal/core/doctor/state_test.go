package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/oncall/internal/core/notify"
	"github.com/colonyops/oncall/internal/store/statefile"
)

func TestStateCheck(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is empty state", func(t *testing.T) {
		result := NewStateCheck(statefile.New(filepath.Join(dir, "none.json"))).Run(context.Background())
		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusPass, result.Items[0].Status)
		assert.Equal(t, "0 seen advisories", result.Items[0].Detail)
	})

	t.Run("populated", func(t *testing.T) {
		store := statefile.New(filepath.Join(dir, "state.json"))
		at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
		require.NoError(t, store.Save(context.Background(), notify.State{SeenIDs: []string{"GHSA-1"}, LastGateAlert: &at}))

		result := NewStateCheck(store).Run(context.Background())
		require.Len(t, result.Items, 1)
		assert.Equal(t, "1 seen advisories, last nag 2025-06-01 09:30", result.Items[0].Detail)
	})

	t.Run("corrupt", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

		result := NewStateCheck(statefile.New(path)).Run(context.Background())
		assert.Equal(t, StatusFail, result.Items[0].Status)
	})
}
