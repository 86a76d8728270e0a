// Package oncall wires configuration, storage and integrations into the
// services the CLI commands call.
package oncall

import (
	"github.com/colonyops/oncall/internal/core/advisory"
	"github.com/colonyops/oncall/internal/core/config"
	"github.com/colonyops/oncall/internal/core/logging"
	"github.com/colonyops/oncall/internal/integration/github"
	"github.com/colonyops/oncall/internal/integration/mail"
	"github.com/colonyops/oncall/internal/store/statefile"
	"github.com/colonyops/oncall/pkg/executil"
)

// App is the central entry point for all oncall operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Notify   *NotifyService
	Rotation *RotationService
	Doctor   *DoctorService

	Config *config.Config
}

// NewApp constructs an App from explicit dependencies.
func NewApp(cfg *config.Config, fetcher advisory.Fetcher, sender mail.Sender) *App {
	rotations := NewRotationService(cfg, logging.Component("rotation"))
	return &App{
		Notify:   NewNotifyService(cfg, statefile.New(cfg.StateFile()), rotations, fetcher, sender, logging.Component("notify")),
		Rotation: rotations,
		Doctor:   NewDoctorService(cfg),
		Config:   cfg,
	}
}

// NewFetcher returns the advisory fetcher selected by cfg.GitHub.Backend.
func NewFetcher(cfg *config.Config, exec executil.Executor) advisory.Fetcher {
	log := logging.Component("github")
	if cfg.GitHub.Backend == config.BackendGh {
		return github.NewGhClient(cfg.Repo, cfg.GitHub.GhPath, exec, log)
	}
	return github.NewClient(cfg.Repo, cfg.GitHub.Token,
		github.WithBaseURL(cfg.GitHub.APIURL),
		github.WithRetries(cfg.GitHub.Retries, cfg.GitHub.RetryBackoff),
		github.WithHTTPClientTimeout(cfg.GitHub.Timeout),
		github.WithLogger(log),
	)
}

// NewSender returns the SMTP sender described by cfg.
func NewSender(cfg *config.Config) *mail.SMTPSender {
	return &mail.SMTPSender{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	}
}
