package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/config"
	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// Reporter builds the scheduled summaries.
type Reporter interface {
	GenerateDailyReport(ctx context.Context, t time.Time) (models.DailyReport, error)
	GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error)
}

// ManagerNotifier delivers the weekly summary.
type ManagerNotifier interface {
	NotifyManager(ctx context.Context, message string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	reporter Reporter
	notifier ManagerNotifier
	cfg      config.ReportingConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler running in the configured time zone.
// notifier may be nil, in which case the weekly summary is only logged.
func NewScheduler(cfg config.ReportingConfig, loc *time.Location, reporter Reporter, notifier ManagerNotifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		reporter: reporter,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("daily", s.cfg.CronSchedule),
		zap.String("weekly", s.cfg.WeeklySchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runDailyReport); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}
	if s.cfg.WeeklySchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.WeeklySchedule, s.sendWeeklyReport); err != nil {
			return fmt.Errorf("schedule weekly report: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.reporter.GenerateDailyReport(ctx, s.now()); err != nil {
		s.logger.Error("failed to generate daily report", zap.Error(err))
	}
}

func (s *Scheduler) sendWeeklyReport() {
	s.logger.Info("generating weekly report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.reporter.GenerateWeeklyReport(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to generate weekly report", zap.Error(err))
		return
	}

	if s.notifier == nil {
		s.logger.Info("weekly report ready, no notifier configured", zap.String("report", report))
		return
	}

	if err := s.notifier.NotifyManager(ctx, report); err != nil {
		s.logger.Error("failed to send weekly report", zap.Error(err))
	} else {
		s.logger.Info("weekly report sent successfully")
	}
}
