// Package config handles configuration loading and validation for oncall.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/oncall/internal/core/notify"
	"github.com/colonyops/oncall/internal/core/rotation"
)

// Supported advisory fetch backends.
const (
	BackendREST = "rest" // GitHub REST API over HTTP
	BackendGh   = "gh"   // gh CLI, reusing its stored credentials
)

// Config holds the application configuration.
type Config struct {
	Repo     string         `yaml:"repo"` // owner/name
	Rotation RotationConfig `yaml:"rotation"`
	Notify   NotifyConfig   `yaml:"notify"`
	GitHub   GitHubConfig   `yaml:"github"`
	SMTP     SMTPConfig     `yaml:"smtp"`

	// Dir is the directory relative paths resolve against. Set by Load.
	Dir string `yaml:"-"`
}

// RotationConfig describes the schedule files and how new shifts are cut.
type RotationConfig struct {
	File             string `yaml:"file"`
	MembersFile      string `yaml:"members_file"`
	ShiftLengthWeeks int    `yaml:"shift_length_weeks"`
	PeoplePerShift   int    `yaml:"people_per_shift"`
	DefaultShifts    int    `yaml:"default_shifts"` // shifts added by extend when no count is given
}

// ShiftLength returns the configured shift length as a duration.
func (r RotationConfig) ShiftLength() time.Duration {
	return time.Duration(r.ShiftLengthWeeks) * rotation.Week
}

// NotifyConfig controls advisory notifications and the exhaustion nag.
type NotifyConfig struct {
	StateFile    string        `yaml:"state_file"`
	NagThreshold time.Duration `yaml:"nag_threshold"`
	NagCooldown  time.Duration `yaml:"nag_cooldown"`
	Recipient    string        `yaml:"recipient"`
	// AdvisoryWindow is how long responders have to act, quoted in emails.
	AdvisoryWindow string `yaml:"advisory_window"`
}

// GitHubConfig controls how open advisories are listed.
type GitHubConfig struct {
	Backend      string        `yaml:"backend"`
	APIURL       string        `yaml:"api_url"`
	GhPath       string        `yaml:"gh_path"`
	Retries      int           `yaml:"retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	Timeout      time.Duration `yaml:"timeout"`

	Token string `yaml:"-"` // flag or env only
}

// SMTPConfig holds the outgoing mail server. Credentials never come from
// the config file.
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	Username string `yaml:"-"`
	Password string `yaml:"-"`
}

// Addr returns host:port.
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Rotation: RotationConfig{
			File:             "rotation.yaml",
			MembersFile:      "rotation-members.yaml",
			ShiftLengthWeeks: 2,
			PeoplePerShift:   2,
			DefaultShifts:    5,
		},
		Notify: NotifyConfig{
			StateFile:      "state.json",
			NagThreshold:   notify.DefaultNagThreshold,
			NagCooldown:    notify.DefaultNagCooldown,
			AdvisoryWindow: "two days",
		},
		GitHub: GitHubConfig{
			Backend:      BackendREST,
			APIURL:       "https://api.github.com",
			GhPath:       "gh",
			Retries:      3,
			RetryBackoff: time.Minute,
			Timeout:      30 * time.Second,
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
	}
}

// Load reads configuration from the given path. If configPath is empty or
// doesn't exist, defaults are returned with paths relative to the working
// directory.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			dir = filepath.Dir(configPath)
		}
	}

	cfg.Dir = dir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Rotation.File == "" {
		c.Rotation.File = defaults.Rotation.File
	}
	if c.Rotation.MembersFile == "" {
		c.Rotation.MembersFile = defaults.Rotation.MembersFile
	}
	if c.Rotation.ShiftLengthWeeks == 0 {
		c.Rotation.ShiftLengthWeeks = defaults.Rotation.ShiftLengthWeeks
	}
	if c.Rotation.PeoplePerShift == 0 {
		c.Rotation.PeoplePerShift = defaults.Rotation.PeoplePerShift
	}
	if c.Rotation.DefaultShifts == 0 {
		c.Rotation.DefaultShifts = defaults.Rotation.DefaultShifts
	}
	if c.Notify.StateFile == "" {
		c.Notify.StateFile = defaults.Notify.StateFile
	}
	if c.Notify.NagThreshold == 0 {
		c.Notify.NagThreshold = defaults.Notify.NagThreshold
	}
	if c.Notify.NagCooldown == 0 {
		c.Notify.NagCooldown = defaults.Notify.NagCooldown
	}
	if c.Notify.AdvisoryWindow == "" {
		c.Notify.AdvisoryWindow = defaults.Notify.AdvisoryWindow
	}
	if c.GitHub.Backend == "" {
		c.GitHub.Backend = defaults.GitHub.Backend
	}
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = defaults.GitHub.APIURL
	}
	if c.GitHub.GhPath == "" {
		c.GitHub.GhPath = defaults.GitHub.GhPath
	}
	if c.GitHub.RetryBackoff == 0 {
		c.GitHub.RetryBackoff = defaults.GitHub.RetryBackoff
	}
	if c.GitHub.Timeout == 0 {
		c.GitHub.Timeout = defaults.GitHub.Timeout
	}
	if c.SMTP.Host == "" {
		c.SMTP.Host = defaults.SMTP.Host
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = defaults.SMTP.Port
	}
}

// Path resolves p against the config directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// RotationFile returns the resolved schedule file path.
func (c *Config) RotationFile() string { return c.Path(c.Rotation.File) }

// MembersFile returns the resolved member pool file path.
func (c *Config) MembersFile() string { return c.Path(c.Rotation.MembersFile) }

// StateFile returns the resolved notification state path.
func (c *Config) StateFile() string { return c.Path(c.Notify.StateFile) }
