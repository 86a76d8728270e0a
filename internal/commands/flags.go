package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/oncall/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	Theme      string

	// Secrets and deployment-specific values. Never read from the config file.
	GitHubRepo     string
	GitHubToken    string
	EmailUsername  string
	EmailPassword  string
	EmailRecipient string
}

// Apply overlays flag and environment values onto cfg. Empty values keep
// whatever the config file set.
func (f *Flags) Apply(cfg *config.Config) {
	if f.GitHubRepo != "" {
		cfg.Repo = f.GitHubRepo
	}
	if f.GitHubToken != "" {
		cfg.GitHub.Token = f.GitHubToken
	}
	if f.EmailUsername != "" {
		cfg.SMTP.Username = f.EmailUsername
	}
	if f.EmailPassword != "" {
		cfg.SMTP.Password = f.EmailPassword
	}
	if f.EmailRecipient != "" {
		cfg.Notify.Recipient = f.EmailRecipient
	}
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "oncall", "config.yaml")
}
