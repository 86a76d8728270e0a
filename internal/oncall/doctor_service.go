package oncall

import (
	"context"
	"time"

	"github.com/colonyops/oncall/internal/core/config"
	"github.com/colonyops/oncall/internal/core/doctor"
	"github.com/colonyops/oncall/internal/store/statefile"
)

// DoctorService runs health checks on the oncall setup.
type DoctorService struct {
	config *config.Config
	now    func() time.Time
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(cfg *config.Config) *DoctorService {
	return &DoctorService{config: cfg, now: time.Now}
}

// RunChecks executes all doctor checks and returns results.
func (d *DoctorService) RunChecks(ctx context.Context, configPath string) []doctor.Result {
	checks := []doctor.Check{
		doctor.NewConfigCheck(d.config, configPath),
		doctor.NewToolsCheck(d.config.GitHub),
		doctor.NewRotationCheck(d.config, d.now),
		doctor.NewStateCheck(statefile.New(d.config.StateFile())),
	}
	return doctor.RunAll(ctx, checks)
}
