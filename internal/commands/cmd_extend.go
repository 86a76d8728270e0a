package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/oncall/internal/core/styles"
	"github.com/colonyops/oncall/internal/oncall"
	"github.com/colonyops/oncall/internal/store/yamlfile"
)

type ExtendCmd struct {
	flags *Flags
	app   *oncall.App

	numShifts   int
	ensureWeeks int
	dryRun      bool
	yes         bool

	now func() time.Time
}

func NewExtendCmd(flags *Flags, app *oncall.App) *ExtendCmd {
	return &ExtendCmd{flags: flags, app: app, now: time.Now}
}

func (cmd *ExtendCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "extend",
		Usage:     "Append shifts to the rotation schedule",
		UsageText: "oncall extend [--num-shifts N | --ensure-weeks W] [--dry-run] [--yes]",
		Description: `Appends new shifts after the last scheduled one, choosing the members who
have gone longest without serving. Existing shifts are never changed.

With --ensure-weeks, only as many shifts are added as needed for the schedule
to reach W weeks from now; nothing is written when it already does.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "num-shifts",
				Aliases:     []string{"n"},
				Usage:       "number of shifts to add (default from rotation.default_shifts)",
				Destination: &cmd.numShifts,
			},
			&cli.IntFlag{
				Name:        "ensure-weeks",
				Usage:       "add shifts until the schedule covers this many weeks from now",
				Destination: &cmd.ensureWeeks,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "print the resulting schedule instead of writing it",
				Destination: &cmd.dryRun,
			},
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "skip the confirmation prompt",
				Destination: &cmd.yes,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ExtendCmd) run(_ context.Context, c *cli.Command) error {
	if cmd.numShifts != 0 && cmd.ensureWeeks != 0 {
		return fmt.Errorf("--num-shifts and --ensure-weeks cannot be used together")
	}

	plan, err := cmd.app.Rotation.PlanExtension(oncall.ExtendOptions{
		Shifts:      cmd.numShifts,
		EnsureWeeks: cmd.ensureWeeks,
	}, cmd.now())
	if err != nil {
		return err
	}

	if len(plan.Added) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, styles.TextMutedStyle.Render("Schedule already covers the requested period; nothing to add."))
		return nil
	}

	if cmd.dryRun {
		data, err := yamlfile.EncodeSchedule(plan.Schedule())
		if err != nil {
			return err
		}
		_, err = c.Root().Writer.Write(data)
		return err
	}

	printAdded(plan)

	if !cmd.yes && term.IsTerminal(int(os.Stdin.Fd())) {
		var confirmed bool
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Append %d shift(s)?", len(plan.Added))).
					Description(cmd.app.Config.RotationFile()).
					Value(&confirmed),
			),
		).WithTheme(styles.FormTheme()).Run()
		if err != nil {
			return err
		}
		if !confirmed {
			_, _ = fmt.Fprintln(os.Stderr, styles.TextMutedStyle.Render("Extend cancelled"))
			return nil
		}
	}

	if err := cmd.app.Rotation.Apply(plan); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(os.Stderr, styles.TextSuccessStyle.Render(
		fmt.Sprintf("%s Added %d shift(s) to %s", styles.IconPass, len(plan.Added), cmd.app.Config.RotationFile()),
	))
	return nil
}

func printAdded(plan oncall.ExtendPlan) {
	w := os.Stderr
	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render("New shifts"))
	for _, shift := range plan.Added {
		_, _ = fmt.Fprintf(w, "  %s  %s\n",
			styles.TextForegroundBoldStyle.Render(shift.Start.UTC().Format(time.DateOnly)),
			strings.Join(shift.Members, ", "),
		)
	}
	if plan.Target != nil {
		_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render("covering through "+plan.Target.UTC().Format(time.DateOnly)))
	}
	_, _ = fmt.Fprintln(w)
}
