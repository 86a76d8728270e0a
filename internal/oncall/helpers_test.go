package oncall

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/oncall/internal/core/advisory"
	"github.com/colonyops/oncall/internal/core/config"
	"github.com/colonyops/oncall/internal/integration/mail"
	"github.com/colonyops/oncall/internal/store/statefile"
)

// sunday is 2025-06-01, a Sunday.
var sunday = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.Repo = "llvm/llvm-project"
	cfg.Notify.Recipient = "security@example.com"
	cfg.SMTP.Username = "bot@example.com"
	return &cfg
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

type fakeFetcher struct {
	items []advisory.Item
	err   error
	calls int
}

func (f *fakeFetcher) FetchOpen(context.Context) ([]advisory.Item, error) {
	f.calls++
	return f.items, f.err
}

func newNotifyService(cfg *config.Config, fetcher advisory.Fetcher, sender mail.Sender) *NotifyService {
	return NewNotifyService(
		cfg,
		statefile.New(cfg.StateFile()),
		NewRotationService(cfg, zerolog.Nop()),
		fetcher,
		sender,
		zerolog.Nop(),
	)
}
