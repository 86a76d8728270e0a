package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/oncall/internal/core/config"
	"github.com/colonyops/oncall/internal/oncall"
)

// sunday is 2025-06-01, a Sunday.
var sunday = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

const testMembers = "members:\n  - alice\n  - bob\n  - carol\n"

func newTestApp(t *testing.T, schedule string) *oncall.App {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.Rotation.ShiftLengthWeeks = 1
	cfg.Rotation.PeoplePerShift = 1

	writeFile(t, cfg.MembersFile(), testMembers)
	if schedule != "" {
		writeFile(t, cfg.RotationFile(), schedule)
	}

	return oncall.NewApp(&cfg, nil, nil)
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

// runCommand registers a single subcommand on a fresh root and runs it with
// args, returning what was written to stdout.
func runCommand(t *testing.T, register func(*cli.Command) *cli.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := &cli.Command{
		Name:           "oncall",
		Writer:         &out,
		ErrWriter:      io.Discard,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	root = register(root)

	err := root.Run(context.Background(), append([]string{"oncall"}, args...))
	return out.String(), err
}
