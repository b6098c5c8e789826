package jobs

import (
	"context"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Rental       service.RentalService
	Notification service.NotificationService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and records the
// outcome. It reports whether the job finished without error.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) (int, error)) (ok bool) {
	start := time.Now()
	affected := 0
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			ok = false
		}
		metrics.RecordJobRun(jobName, time.Since(start), affected, ok)
	}()

	logger.Info("Starting job", "job", jobName)
	n, err := jobFunc(context.Background())
	affected = n
	if err != nil {
		logger.Error("Job failed", "job", jobName, "affected", n, "error", err)
		return false
	}
	logger.Info("Job completed", "job", jobName, "affected", n, "duration", time.Since(start))
	return true
}

// ExpireStaleRentals cancels pending rental requests whose start date passed
// without an owner decision.
func (jr *JobRunner) ExpireStaleRentals() {
	jr.runWithRecovery("expire_stale_rentals", func(ctx context.Context) (int, error) {
		return jr.services.Rental.ExpireStale(ctx, jr.now())
	})
}

// CompleteFinishedRentals closes active rentals whose end date passed.
func (jr *JobRunner) CompleteFinishedRentals() {
	jr.runWithRecovery("complete_finished_rentals", func(ctx context.Context) (int, error) {
		return jr.services.Rental.CompleteFinished(ctx, jr.now())
	})
}

// PurgeReadNotifications deletes read notifications older than the retention window.
func (jr *JobRunner) PurgeReadNotifications() {
	jr.runWithRecovery("purge_read_notifications", func(ctx context.Context) (int, error) {
		days := jr.config.Scheduler.NotificationRetentionDays
		if days <= 0 {
			days = 30
		}
		n, err := jr.services.Notification.PurgeRead(ctx, jr.now().AddDate(0, 0, -days))
		return int(n), err
	})
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ExpireStaleRentals()
	jr.CompleteFinishedRentals()
	jr.PurgeReadNotifications()
}
