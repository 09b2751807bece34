package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matiks/matiks-monitor/internal/config"
	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/matiks/matiks-monitor/internal/monitoring"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner runs one monitoring cycle
type Runner interface {
	RunMonitoring(ctx context.Context) (*models.RunStatus, error)
}

// Service handles scheduling of monitoring cycles
type Service struct {
	config *config.Config
	runner Runner
	cron   *cron.Cron
	entry  cron.EntryID
	ctx    context.Context
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, runner Runner) *Service {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	return &Service{
		config: cfg,
		runner: runner,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx: context.Background(),
	}
}

// Schedule returns the cron expression derived from the configured interval
func (s *Service) Schedule() string {
	return fmt.Sprintf("@every %dm", s.config.RunEveryMinutes)
}

// Start begins the scheduled cycles; ctx is passed to every cycle
func (s *Service) Start(ctx context.Context) error {
	s.ctx = ctx

	entry, err := s.cron.AddFunc(s.Schedule(), s.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to schedule monitoring: %w", err)
	}
	s.entry = entry

	s.cron.Start()
	logrus.Infof("Scheduler started (every %d minutes)", s.config.RunEveryMinutes)
	return nil
}

// Stop stops the scheduler and waits for a running cycle to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}

// NextRun returns when the next scheduled cycle starts, or zero before Start
func (s *Service) NextRun() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

func (s *Service) runScheduled() {
	logrus.Info("Starting scheduled monitoring cycle")
	if _, err := s.runner.RunMonitoring(s.ctx); err != nil {
		if errors.Is(err, monitoring.ErrCycleRunning) {
			return
		}
		logrus.Errorf("Scheduled monitoring cycle failed: %v", err)
	}
}
