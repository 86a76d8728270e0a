package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/oncall/internal/commands"
	"github.com/colonyops/oncall/internal/core/config"
	"github.com/colonyops/oncall/internal/core/styles"
	"github.com/colonyops/oncall/internal/oncall"
	"github.com/colonyops/oncall/pkg/executil"
	"github.com/colonyops/oncall/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() reads
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// ldflags aren't set for `go install module@version`; fall back to the
	// module version and VCS metadata Go embeds automatically.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		oncallApp = &oncall.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "oncall",
		Usage:     "Manage a security on-call rotation and its advisory emails",
		UsageText: "oncall [global options] command [command options]",
		Description: `oncall keeps a rotation schedule of security responders and emails whoever is
on call about new GitHub security advisories.

Run 'oncall extend' to add shifts, and run 'oncall notify' from cron to send
advisory emails and reminders when the schedule is running out.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("ONCALL_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to a JSON log file (defaults to stderr)",
				Sources:     cli.EnvVars("ONCALL_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("ONCALL_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "theme",
				Usage:       fmt.Sprintf("color theme for terminal output %v", styles.ThemeNames()),
				Sources:     cli.EnvVars("ONCALL_THEME"),
				Value:       styles.DefaultTheme,
				Destination: &flags.Theme,
			},
			&cli.StringFlag{
				Name:        "github-repo",
				Usage:       "repository to watch, as owner/name",
				Sources:     cli.EnvVars("GITHUB_REPOSITORY"),
				Destination: &flags.GitHubRepo,
			},
			&cli.StringFlag{
				Name:        "github-token",
				Usage:       "token able to read repository security advisories",
				Sources:     cli.EnvVars("GITHUB_TOKEN"),
				Destination: &flags.GitHubToken,
			},
			&cli.StringFlag{
				Name:        "email-username",
				Usage:       "SMTP username, also used as the From address",
				Sources:     cli.EnvVars("GMAIL_USERNAME"),
				Destination: &flags.EmailUsername,
			},
			&cli.StringFlag{
				Name:        "email-password",
				Usage:       "SMTP password or app password",
				Sources:     cli.EnvVars("GMAIL_PASSWORD"),
				Destination: &flags.EmailPassword,
			},
			&cli.StringFlag{
				Name:        "email-recipient",
				Usage:       "address every email is sent to",
				Sources:     cli.EnvVars("EMAIL_RECIPIENT"),
				Destination: &flags.EmailRecipient,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			palette, ok := styles.GetPalette(flags.Theme)
			if !ok {
				return ctx, fmt.Errorf("unknown theme %q; available: %v", flags.Theme, styles.ThemeNames())
			}
			styles.SetTheme(palette)

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Apply(cfg)

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*oncallApp = *oncall.NewApp(
				cfg,
				oncall.NewFetcher(cfg, &executil.RealExecutor{}),
				oncall.NewSender(cfg),
			)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewExtendCmd(flags, oncallApp).Register(app)
	app = commands.NewNotifyCmd(flags, oncallApp).Register(app)
	app = commands.NewShowCmd(flags, oncallApp).Register(app)
	app = commands.NewDoctorCmd(flags, oncallApp).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
