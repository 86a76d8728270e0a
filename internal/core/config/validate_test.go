package config

import (
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.Repo = "llvm/llvm-project"
	cfg.Notify.Recipient = "security@example.com"
	cfg.GitHub.Token = "ghp_test"
	cfg.SMTP.Username = "bot@example.com"
	cfg.SMTP.Password = "hunter2"
	return &cfg
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		names = append(names, fe.Field)
	}
	return names
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateDelivery())
}

func TestValidate_StructuralErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Rotation.ShiftLengthWeeks = 0
	cfg.Rotation.PeoplePerShift = -1
	cfg.Notify.Recipient = "not an address"
	cfg.GitHub.Backend = "carrier-pigeon"
	cfg.SMTP.Port = 70000

	names := fieldNames(t, cfg.Validate())
	assert.ElementsMatch(t, []string{
		"rotation.shift_length_weeks",
		"rotation.people_per_shift",
		"notify.recipient",
		"github.backend",
		"smtp.port",
	}, names)
}

func TestValidate_PathIsDirectory(t *testing.T) {
	cfg := validConfig(t)
	cfg.Rotation.File = "."

	names := fieldNames(t, cfg.Validate())
	assert.Equal(t, []string{"rotation.file"}, names)
}

func TestValidate_BadAPIURL(t *testing.T) {
	cfg := validConfig(t)
	cfg.GitHub.APIURL = "not-a-url"

	names := fieldNames(t, cfg.Validate())
	assert.Equal(t, []string{"github.api_url"}, names)
}

func TestValidateDelivery_MissingCredentials(t *testing.T) {
	cfg := validConfig(t)
	cfg.Repo = ""
	cfg.GitHub.Token = ""
	cfg.SMTP.Username = ""
	cfg.SMTP.Password = ""
	cfg.Notify.Recipient = ""

	names := fieldNames(t, cfg.ValidateDelivery())
	assert.ElementsMatch(t, []string{
		"repo",
		"github.token",
		"smtp.username",
		"smtp.password",
		"notify.recipient",
	}, names)
}

func TestValidateFetch(t *testing.T) {
	t.Run("dry runs only need repo and token", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.SMTP.Username = ""
		cfg.Notify.Recipient = ""
		assert.NoError(t, cfg.ValidateFetch())
	})

	t.Run("gh backend does not need a token", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.GitHub.Backend = BackendGh
		cfg.GitHub.GhPath = "sh"
		cfg.GitHub.Token = ""
		assert.NoError(t, cfg.ValidateFetch())
	})

	t.Run("malformed repo", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Repo = "llvm"
		names := fieldNames(t, cfg.ValidateFetch())
		assert.Equal(t, []string{"repo"}, names)
	})
}
