package config

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/hay-kot/criterio"
)

// Validate checks that the configuration is structurally valid. It does not
// require credentials; see ValidateDelivery.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		c.validateRotation(),
		c.validateNotify(),
		c.validateGitHub(),
		c.validateSMTP(),
	)
}

// ValidateDelivery checks everything a real (non dry-run) notify run needs:
// whatever fetching requires plus mail credentials and a recipient.
func (c *Config) ValidateDelivery() error {
	var errs criterio.FieldErrorsBuilder
	if c.SMTP.Username == "" {
		errs = errs.Append("smtp.username", fmt.Errorf("required; set GMAIL_USERNAME or --email-username"))
	}
	if c.SMTP.Password == "" {
		errs = errs.Append("smtp.password", fmt.Errorf("required; set GMAIL_PASSWORD or --email-password"))
	}
	if c.Notify.Recipient == "" {
		errs = errs.Append("notify.recipient", fmt.Errorf("required; set EMAIL_RECIPIENT or --email-recipient"))
	}

	return criterio.ValidateStruct(
		c.ValidateFetch(),
		errs.ToError(),
	)
}

// ValidateFetch checks what listing advisories needs, which dry runs still do.
func (c *Config) ValidateFetch() error {
	var errs criterio.FieldErrorsBuilder
	if c.GitHub.Backend == BackendREST && c.GitHub.Token == "" {
		errs = errs.Append("github.token", fmt.Errorf("required; set GITHUB_TOKEN or --github-token"))
	}
	if c.GitHub.Backend == BackendGh {
		if _, err := exec.LookPath(c.GitHub.GhPath); err != nil {
			errs = errs.Append("github.gh_path", fmt.Errorf("executable not found: %s", c.GitHub.GhPath))
		}
	}

	return criterio.ValidateStruct(
		criterio.Run("repo", c.Repo, repoName),
		errs.ToError(),
	)
}

func (c *Config) validateRotation() error {
	var errs criterio.FieldErrorsBuilder
	if c.Rotation.ShiftLengthWeeks < 1 {
		errs = errs.Append("rotation.shift_length_weeks", fmt.Errorf("must be at least 1"))
	}
	if c.Rotation.PeoplePerShift < 1 {
		errs = errs.Append("rotation.people_per_shift", fmt.Errorf("must be at least 1"))
	}
	if c.Rotation.DefaultShifts < 1 {
		errs = errs.Append("rotation.default_shifts", fmt.Errorf("must be at least 1"))
	}

	return criterio.ValidateStruct(
		criterio.Run("rotation.file", c.RotationFile(), fileOrNotExist),
		criterio.Run("rotation.members_file", c.MembersFile(), fileOrNotExist),
		errs.ToError(),
	)
}

func (c *Config) validateNotify() error {
	var errs criterio.FieldErrorsBuilder
	if c.Notify.NagThreshold < 0 {
		errs = errs.Append("notify.nag_threshold", fmt.Errorf("cannot be negative"))
	}
	if c.Notify.NagCooldown < 0 {
		errs = errs.Append("notify.nag_cooldown", fmt.Errorf("cannot be negative"))
	}
	if c.Notify.Recipient != "" {
		if _, err := mail.ParseAddress(c.Notify.Recipient); err != nil {
			errs = errs.Append("notify.recipient", fmt.Errorf("invalid address %q: %w", c.Notify.Recipient, err))
		}
	}

	return criterio.ValidateStruct(
		criterio.Run("notify.state_file", c.StateFile(), fileOrNotExist),
		errs.ToError(),
	)
}

func (c *Config) validateGitHub() error {
	var errs criterio.FieldErrorsBuilder
	switch c.GitHub.Backend {
	case BackendREST:
		if u, err := url.Parse(c.GitHub.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = errs.Append("github.api_url", fmt.Errorf("invalid URL %q", c.GitHub.APIURL))
		}
	case BackendGh:
	default:
		errs = errs.Append("github.backend", fmt.Errorf("must be %q or %q, got %q", BackendREST, BackendGh, c.GitHub.Backend))
	}
	if c.GitHub.Retries < 0 {
		errs = errs.Append("github.retries", fmt.Errorf("cannot be negative"))
	}
	if c.GitHub.RetryBackoff < 0 {
		errs = errs.Append("github.retry_backoff", fmt.Errorf("cannot be negative"))
	}

	return errs.ToError()
}

func (c *Config) validateSMTP() error {
	var errs criterio.FieldErrorsBuilder
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		errs = errs.Append("smtp.port", fmt.Errorf("must be between 1 and 65535"))
	}

	return criterio.ValidateStruct(
		criterio.Run("smtp.host", c.SMTP.Host, notBlank),
		errs.ToError(),
	)
}

// repoName validates an owner/name repository reference.
func repoName(s string) error {
	owner, name, ok := strings.Cut(s, "/")
	if s == "" {
		return fmt.Errorf("required; set --github-repo or GITHUB_REPOSITORY")
	}
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("must be in the form owner/repo, got %q", s)
	}
	return nil
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

// fileOrNotExist validates that a path is a regular file or doesn't exist yet.
func fileOrNotExist(path string) error {
	if path == "" {
		return fmt.Errorf("cannot be empty")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}
