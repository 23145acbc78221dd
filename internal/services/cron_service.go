package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const expiryJobTimeout = 2 * time.Minute

// CronService manages scheduled background jobs
type CronService struct {
	cron      *cron.Cron
	expirySvc *PaymentExpiryService
	schedule  string
	logger    *logrus.Logger
}

// NewCronService creates a new CronService.
// schedule uses the six-field format: second minute hour day month weekday.
func NewCronService(expirySvc *PaymentExpiryService, schedule string, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:      cron.New(cron.WithSeconds()),
		expirySvc: expirySvc,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.expirePaymentsJob); err != nil {
		return fmt.Errorf("failed to schedule payment expiry job: %w", err)
	}
	s.logger.WithField("schedule", s.schedule).Info("Scheduled: expire stale pending payments")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) expirePaymentsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), expiryJobTimeout)
	defer cancel()

	start := time.Now()
	expired, err := s.expirySvc.Run(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("expired", expired).Error("[CRON] Payment expiry job failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"expired":  expired,
		"duration": time.Since(start).String(),
	}).Debug("[CRON] Payment expiry job finished")
}

// RunExpiryNow runs the payment expiry job immediately
func (s *CronService) RunExpiryNow() {
	s.expirePaymentsJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
