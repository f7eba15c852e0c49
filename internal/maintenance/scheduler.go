// Package maintenance runs periodic housekeeping against the history store.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mirukang/fortunecast/internal/database"
)

// Scheduler runs the store maintenance job (VACUUM for the SQLite backend)
// at a fixed interval using gocron.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates and configures the maintenance scheduler. The job is
// registered but not started; call Start.
func NewScheduler(log *slog.Logger, interval time.Duration, store database.Store) (*Scheduler, error) {
	logger := log.With("component", "maintenance")

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			logger.InfoContext(ctx, "Running scheduled store maintenance")
			startTime := time.Now()

			if taskErr := store.RunSQLMaintenance(ctx); taskErr != nil {
				logger.ErrorContext(ctx, "Store maintenance failed", "error", taskErr, "duration", time.Since(startTime))
				return
			}

			logger.InfoContext(ctx, "Store maintenance completed", "duration", time.Since(startTime))
		}, context.Background()),
		gocron.WithName("store_maintenance"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule maintenance job: %w", err)
	}

	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Start begins the scheduler's internal ticking.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("Maintenance scheduler started")
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
		return err
	}
	s.logger.Info("Maintenance scheduler stopped gracefully.")
	return nil
}
