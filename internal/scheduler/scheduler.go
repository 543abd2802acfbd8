// Package scheduler runs the server's periodic jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crwn/internal/models"
	"crwn/internal/observability"
	"crwn/internal/onboarding"
	"crwn/internal/result"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// Affirmations is satisfied by *service.AffirmationService.
type Affirmations interface {
	SendDue(ctx context.Context, frequency string) result.Result[int]
}

// Config holds cron specs. Empty specs disable a job.
type Config struct {
	DailyAffirmations  string
	WeeklyAffirmations string
	DraftSweep         string
}

// Scheduler wraps a cron runner with logging and metrics per job.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// New registers the affirmation and draft-sweep jobs. drafts may be nil.
func New(ctx context.Context, cfg Config, aff Affirmations, drafts *onboarding.DraftStore) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{}))),
		ctx:  ctx,
	}

	if aff != nil {
		if err := s.add("affirmations_daily", cfg.DailyAffirmations, func(ctx context.Context) (int, error) {
			return aff.SendDue(ctx, models.FrequencyDaily).Unwrap()
		}); err != nil {
			return nil, err
		}
		if err := s.add("affirmations_weekly", cfg.WeeklyAffirmations, func(ctx context.Context) (int, error) {
			return aff.SendDue(ctx, models.FrequencyWeekly).Unwrap()
		}); err != nil {
			return nil, err
		}
	}
	if drafts != nil {
		if err := s.add("onboarding_draft_sweep", cfg.DraftSweep, func(context.Context) (int, error) {
			return drafts.Sweep(), nil
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) add(name, spec string, job func(context.Context) (int, error)) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Run(name, job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

// Run executes one job immediately with the scheduler's logging and metrics.
func (s *Scheduler) Run(name string, job func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	fields := map[string]interface{}{"job": name}
	observability.LogAsyncOperationStart(ctx, "scheduled_job", fields)
	n, err := job(ctx)
	observability.ScheduledJobRuns.WithLabelValues(name, observability.Outcome(err)).Inc()
	if err != nil {
		observability.LogAsyncOperationError(ctx, "scheduled_job", err, fields)
		return
	}
	fields["affected"] = n
	observability.LogAsyncOperationEnd(ctx, "scheduled_job", fields)
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	observability.GlobalLogger.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	observability.GlobalLogger.Error(msg, append(keysAndValues, slog.String("error", err.Error()))...)
}
