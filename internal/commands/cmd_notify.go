package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/oncall/internal/core/notify"
	"github.com/colonyops/oncall/internal/core/styles"
	"github.com/colonyops/oncall/internal/oncall"
	"github.com/colonyops/oncall/pkg/iojson"
)

type NotifyCmd struct {
	flags *Flags
	app   *oncall.App

	dryRun bool
	json   bool
}

func NewNotifyCmd(flags *Flags, app *oncall.App) *NotifyCmd {
	return &NotifyCmd{flags: flags, app: app}
}

func (cmd *NotifyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "notify",
		Usage:     "Email the on-call shift about new security advisories",
		UsageText: "oncall notify [--dry-run] [--json]",
		Description: `Lists open security advisories and emails the current on-call members about
each one they have not been told about and are not already collaborating on.
Also sends a reminder when the schedule is close to running out.

Meant to run from cron. Repeated runs are safe: advisories are only emailed
once, and failed sends are retried on the next run.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "log emails instead of sending them and write state to <state>.dry-run",
				Destination: &cmd.dryRun,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the run report as JSON",
				Destination: &cmd.json,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *NotifyCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config

	validate := cfg.ValidateDelivery
	if cmd.dryRun {
		validate = cfg.ValidateFetch
	}
	if err := validate(); err != nil {
		return fmt.Errorf("notify is not configured: %w", err)
	}

	report, err := cmd.app.Notify.Run(ctx, oncall.NotifyOptions{DryRun: cmd.dryRun})
	if err != nil {
		return err
	}

	if cmd.json {
		return iojson.WriteWith(c.Root().Writer, os.Stderr, report)
	}

	printReport(report)
	return nil
}

func printReport(r oncall.NotifyReport) {
	w := os.Stderr

	title := "Notify"
	if r.DryRun {
		title += " (dry run)"
	}
	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render(title))

	if len(r.OnCall) == 0 {
		_, _ = fmt.Fprintf(w, "  %s %s\n", styles.TextWarningStyle.Render(styles.IconWarn), "no shift is active")
	} else {
		_, _ = fmt.Fprintf(w, "  on call: %s\n", styles.TextForegroundBoldStyle.Render(strings.Join(r.OnCall, ", ")))
	}

	failed := make(map[string]bool, len(r.Failed))
	for _, id := range r.Failed {
		failed[id] = true
	}

	for _, o := range r.Plan.Outcomes {
		var icon, detail string
		switch {
		case failed[o.Item.ID]:
			icon = styles.TextErrorStyle.Render(styles.IconFail)
			detail = "send failed, will retry"
		case o.Decision == notify.DecisionNotify:
			icon = styles.TextSuccessStyle.Render(styles.IconPass)
			detail = "emailed"
		default:
			icon = styles.TextMutedStyle.Render(styles.IconWarn)
			detail = string(o.Decision)
		}
		_, _ = fmt.Fprintf(w, "  %s %s %s\n", icon, o.Item.ID, styles.TextMutedStyle.Render(detail))
	}

	switch {
	case r.NagFailed:
		_, _ = fmt.Fprintf(w, "  %s %s\n", styles.TextErrorStyle.Render(styles.IconFail), "schedule reminder failed to send")
	case r.Nagged:
		_, _ = fmt.Fprintf(w, "  %s %s\n", styles.TextWarningStyle.Render(styles.IconWarn), "schedule running out; reminder sent")
	}

	if r.StateChanged {
		_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render("state written to "+r.StatePath))
	}
}
