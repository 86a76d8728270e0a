package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/colonyops/oncall/internal/core/config"
)

// ConfigCheck reports on the config file and whether a real notify run has
// the credentials it needs.
type ConfigCheck struct {
	cfg  *config.Config
	path string
}

// NewConfigCheck creates a new config check.
func NewConfigCheck(cfg *config.Config, path string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, path: path}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	switch _, err := os.Stat(c.path); {
	case c.path == "":
		result.add("config file", StatusWarn, "no path given, using defaults")
	case os.IsNotExist(err):
		result.add("config file", StatusWarn, fmt.Sprintf("%s not found, using defaults", c.path))
	case err != nil:
		result.add("config file", StatusFail, fmt.Sprintf("inaccessible: %v", err))
	default:
		result.add("config file", StatusPass, c.path)
	}

	if err := c.cfg.Validate(); err != nil {
		result.add("settings", StatusFail, err.Error())
	} else {
		result.add("settings", StatusPass, "")
	}

	if err := c.cfg.ValidateDelivery(); err != nil {
		result.add("delivery", StatusWarn, fmt.Sprintf("only dry runs will work: %v", err))
	} else {
		result.add("delivery", StatusPass, fmt.Sprintf("%s via %s", c.cfg.Notify.Recipient, c.cfg.SMTP.Addr()))
	}

	return result
}
