package oncall

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/oncall/internal/core/advisory"
	"github.com/colonyops/oncall/internal/core/config"
	"github.com/colonyops/oncall/internal/core/logging"
	"github.com/colonyops/oncall/internal/core/notify"
	"github.com/colonyops/oncall/internal/core/rotation"
	"github.com/colonyops/oncall/internal/integration/mail"
	"github.com/colonyops/oncall/internal/store/statefile"
)

// NotifyOptions controls a single notify run.
type NotifyOptions struct {
	// DryRun logs emails instead of sending them and writes state next to
	// the real state file.
	DryRun bool
	// Now overrides the clock. Zero means time.Now.
	Now time.Time
}

// NotifyReport summarises what a run did.
type NotifyReport struct {
	RunID  string    `json:"run_id"`
	Now    time.Time `json:"now"`
	DryRun bool      `json:"dry_run"`

	OnCall []string    `json:"on_call"`
	Plan   notify.Plan `json:"plan"`
	// Failed lists advisories whose email could not be sent; they stay out
	// of the seen set and are retried next run.
	Failed []string `json:"failed,omitempty"`

	Nagged    bool `json:"nagged"`
	NagFailed bool `json:"nag_failed,omitempty"`

	StateChanged bool   `json:"state_changed"`
	StatePath    string `json:"state_path,omitempty"`
}

// NotifyService runs advisory reconciliation and the schedule exhaustion nag.
type NotifyService struct {
	config    *config.Config
	state     *statefile.Store
	rotations *RotationService
	fetcher   advisory.Fetcher
	sender    mail.Sender
	log       zerolog.Logger
}

// NewNotifyService creates a new NotifyService.
func NewNotifyService(
	cfg *config.Config,
	state *statefile.Store,
	rotations *RotationService,
	fetcher advisory.Fetcher,
	sender mail.Sender,
	log zerolog.Logger,
) *NotifyService {
	return &NotifyService{
		config:    cfg,
		state:     state,
		rotations: rotations,
		fetcher:   fetcher,
		sender:    sender,
		log:       log,
	}
}

// Run performs one reconciliation pass. Fetch and load failures abort the
// run before any state is written; send failures do not.
func (s *NotifyService) Run(ctx context.Context, opts NotifyOptions) (NotifyReport, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	runID := logging.GetRunID(ctx)
	if runID == "" {
		runID = logging.NewRunID()
		ctx = logging.WithRunID(ctx, runID)
	}
	report := NotifyReport{RunID: runID, Now: now, DryRun: opts.DryRun}

	sender := s.sender
	if opts.DryRun {
		sender = mail.DryRunSender{Log: s.log}
	}

	state, err := s.state.Load(ctx)
	if err != nil {
		return report, err
	}
	schedule, err := s.rotations.Schedule()
	if err != nil {
		return report, err
	}
	pool, err := s.rotations.Members()
	if err != nil {
		return report, err
	}

	composer := mail.Composer{
		Repo:          s.config.Repo,
		From:          s.config.SMTP.Username,
		To:            s.config.Notify.Recipient,
		Window:        s.config.Notify.AdvisoryWindow,
		ExtendCommand: "oncall extend",
		Cooldown:      s.config.Notify.NagCooldown,
	}

	next := state
	if shift, ok := schedule.Current(now); ok {
		report.OnCall = shift.Members
		for _, id := range pool.Departed(rotation.Schedule{shift}) {
			s.log.Warn().Ctx(ctx).Str("member", id).Msg("on-call member is no longer in the member pool")
		}

		items, err := s.fetcher.FetchOpen(ctx)
		if err != nil {
			return report, fmt.Errorf("list advisories: %w", err)
		}

		plan := notify.Reconcile(items, shift.Members, state)
		report.Plan = plan

		failed := map[string]bool{}
		for _, o := range plan.Outcomes {
			switch o.Decision {
			case notify.DecisionSeen:
				s.log.Debug().Ctx(ctx).Str("advisory_id", o.Item.ID).Msg("skipping advisory: already seen")
			case notify.DecisionCovered:
				s.log.Info().Ctx(ctx).Str("advisory_id", o.Item.ID).Msg("skipping advisory: on-call member already collaborating")
			}
		}
		for _, n := range plan.Notifications {
			nctx := logging.WithAdvisoryID(ctx, n.Item.ID)
			if err := s.deliver(nctx, sender, func() (mail.Message, error) { return composer.Advisory(n, now) }); err != nil {
				s.log.Error().Ctx(nctx).Err(err).Msg("advisory email failed; will retry next run")
				failed[n.Item.ID] = true
				report.Failed = append(report.Failed, n.Item.ID)
				continue
			}
			s.log.Info().Ctx(nctx).Strs("on_call", n.Recipients).Msg("advisory email sent")
		}

		next = plan.Commit(state, failed)
	} else {
		s.log.Warn().Ctx(ctx).Msg("no rotation is currently active; not emailing about advisories")
	}

	next, report.Nagged, report.NagFailed = s.maybeNag(ctx, sender, composer, schedule, now, next)

	if next.Equal(state) {
		s.log.Debug().Ctx(ctx).Msg("state unchanged")
		return report, nil
	}

	store := s.state
	if opts.DryRun {
		store = store.DryRun()
		s.log.Info().Ctx(ctx).Str("path", store.Path()).Msg("dry-run: writing new state")
	}
	if err := store.Save(ctx, next); err != nil {
		return report, err
	}
	report.StateChanged = true
	report.StatePath = store.Path()

	return report, nil
}

func (s *NotifyService) maybeNag(
	ctx context.Context,
	sender mail.Sender,
	composer mail.Composer,
	schedule rotation.Schedule,
	now time.Time,
	state notify.State,
) (next notify.State, nagged, failed bool) {
	shiftLength := s.config.Rotation.ShiftLength()

	var lastStart, end *time.Time
	if last, ok := schedule.Last(); ok {
		lastStart = &last.Start
		e, _ := schedule.End(shiftLength)
		end = &e
	}

	alert, gated := notify.MaybeAlert(end, now, state, s.config.Notify.NagThreshold, s.config.Notify.NagCooldown)
	if !alert {
		if end != nil {
			s.log.Info().Ctx(ctx).Dur("remaining", end.Sub(now)).Msg("not nagging about schedule end")
		}
		return state, false, false
	}

	if err := s.deliver(ctx, sender, func() (mail.Message, error) { return composer.Nag(lastStart, end, now) }); err != nil {
		s.log.Error().Ctx(ctx).Err(err).Msg("schedule nag email failed; will retry next run")
		return state, false, true
	}

	s.log.Info().Ctx(ctx).Msg("schedule nag email sent")
	return gated, true, false
}

// deliver composes and sends one message. Any error or panic from either
// step is returned as an error so one bad message cannot abort the run.
func (s *NotifyService) deliver(ctx context.Context, sender mail.Sender, compose func() (mail.Message, error)) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", mail.ErrSend, p)
		}
	}()

	msg, err := compose()
	if err != nil {
		return err
	}
	return sender.Send(ctx, msg)
}
