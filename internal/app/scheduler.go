/**
 * @description
 * Cron scheduler setup for the billing jobs: recurring billing (daily) and
 * boleto status monitoring (hourly). Jobs are wrapped so an overlapping
 * trigger skips instead of re-entering a still-running job.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 10 * time.Minute

// Jobs adapts the engine and monitor to parameterless cron entries.
type Jobs struct {
	engine  *BillingEngine
	monitor *Monitor
	logger  *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(engine *BillingEngine, monitor *Monitor, logger *slog.Logger) *Jobs {
	return &Jobs{engine: engine, monitor: monitor, logger: logger}
}

// RunRecurringBilling executes one recurring billing cycle.
func (j *Jobs) RunRecurringBilling() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.engine.ProcessRecurringBilling(ctx); err != nil {
		j.logger.Error("recurring billing job failed", "error", err)
	}
}

// RunStatusMonitor executes one boleto monitoring pass.
func (j *Jobs) RunStatusMonitor() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.monitor.MonitorOpenInvoices(ctx); err != nil {
		j.logger.Error("boleto monitoring job failed", "error", err)
	}
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron            *cron.Cron
	jobs            *Jobs
	logger          *slog.Logger
	billingSchedule string
	monitorSchedule string
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, billingSchedule, monitorSchedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger),
		cron.Recover(cronLogger),
	))

	return &Scheduler{
		cron:            c,
		jobs:            jobs,
		logger:          logger,
		billingSchedule: billingSchedule,
		monitorSchedule: monitorSchedule,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.billingSchedule, s.jobs.RunRecurringBilling); err != nil {
		s.logger.Error("failed to schedule recurring billing job", "error", err)
	} else {
		s.logger.Info("scheduled recurring billing job", "schedule", s.billingSchedule)
	}

	if _, err := s.cron.AddFunc(s.monitorSchedule, s.jobs.RunStatusMonitor); err != nil {
		s.logger.Error("failed to schedule boleto monitoring job", "error", err)
	} else {
		s.logger.Info("scheduled boleto monitoring job", "schedule", s.monitorSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries exposes the scheduled jobs for the health endpoint.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
