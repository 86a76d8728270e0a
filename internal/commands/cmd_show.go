package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/oncall/internal/core/rotation"
	"github.com/colonyops/oncall/internal/core/styles"
	"github.com/colonyops/oncall/internal/oncall"
	"github.com/colonyops/oncall/pkg/iojson"
)

type ShowCmd struct {
	flags *Flags
	app   *oncall.App

	json bool
	all  bool

	now func() time.Time
}

func NewShowCmd(flags *Flags, app *oncall.App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app, now: time.Now}
}

func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "show",
		Usage:       "Print the rotation schedule",
		UsageText:   "oncall show [--json] [--all]",
		Description: "Prints the current and upcoming shifts. The shift on call right now is highlighted.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.json,
			},
			&cli.BoolFlag{
				Name:        "all",
				Aliases:     []string{"a"},
				Usage:       "include shifts that have already ended",
				Destination: &cmd.all,
			},
		},
		Action: cmd.run,
	})
	return app
}

type shiftRow struct {
	Start   time.Time `json:"start_time"`
	End     time.Time `json:"end_time"`
	Members []string  `json:"members"`
	Current bool      `json:"current"`
}

func (cmd *ShowCmd) run(_ context.Context, c *cli.Command) error {
	schedule, err := cmd.app.Rotation.Schedule()
	if err != nil {
		return err
	}

	rows := scheduleRows(schedule, cmd.app.Config.Rotation.ShiftLength(), cmd.now(), cmd.all)
	w := c.Root().Writer

	if cmd.json {
		if rows == nil {
			rows = []shiftRow{}
		}
		return iojson.WriteWith(w, os.Stderr, rows)
	}

	md := scheduleMarkdown(rows)

	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		_, err := io.WriteString(w, md)
		return err
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("render schedule: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// scheduleRows selects the shifts to display. Without all, shifts that ended
// before now are dropped.
func scheduleRows(schedule rotation.Schedule, shiftLength time.Duration, now time.Time, all bool) []shiftRow {
	current, hasCurrent := schedule.Current(now)

	var rows []shiftRow
	for _, shift := range schedule {
		end := shift.Start.Add(shiftLength)
		isCurrent := hasCurrent && shift.Start.Equal(current.Start)
		if !all && !isCurrent && !shift.Start.After(now) {
			continue
		}
		rows = append(rows, shiftRow{
			Start:   shift.Start,
			End:     end,
			Members: shift.Members,
			Current: isCurrent,
		})
	}
	return rows
}

func scheduleMarkdown(rows []shiftRow) string {
	var b strings.Builder
	b.WriteString("## On-call rotation\n\n")

	if len(rows) == 0 {
		b.WriteString("No shifts scheduled. Run `oncall extend` to add some.\n")
		return b.String()
	}

	b.WriteString("|   | Start | End | Members |\n")
	b.WriteString("|---|-------|-----|---------|\n")
	for _, r := range rows {
		start := r.Start.UTC().Format(time.DateOnly)
		end := r.End.UTC().Format(time.DateOnly)
		members := strings.Join(r.Members, ", ")
		if r.Current {
			fmt.Fprintf(&b, "| %s | **%s** | **%s** | **%s** |\n", styles.IconCurrent, start, end, members)
			continue
		}
		fmt.Fprintf(&b, "|   | %s | %s | %s |\n", start, end, members)
	}

	last := rows[len(rows)-1]
	fmt.Fprintf(&b, "\nSchedule ends %s.\n", last.End.UTC().Format(time.DateOnly))
	return b.String()
}
