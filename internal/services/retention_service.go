package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/formguard/internal/logger"
	"github.com/Wikid82/formguard/internal/metrics"
)

// Purger removes decision records older than a number of days.
type Purger interface {
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// RetentionService runs the age-based purge on a cron schedule, away from
// the decision path.
type RetentionService struct {
	store    Purger
	days     int
	schedule string
	reporter StorageErrorReporter

	mu   sync.Mutex
	cron *cron.Cron
}

// NewRetentionService returns a RetentionService. days of 0 disables the schedule.
func NewRetentionService(store Purger, days int, schedule string, reporter StorageErrorReporter) *RetentionService {
	return &RetentionService{store: store, days: days, schedule: schedule, reporter: reporter}
}

// Start registers the purge job and starts the scheduler.
func (s *RetentionService) Start() error {
	if s.days <= 0 {
		logger.Log().Info("retention purge disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c

	logger.WithFields(logrus.Fields{"schedule": s.schedule, "days": s.days}).Info("retention purge scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running purge to finish.
func (s *RetentionService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// runScheduled is the cron job body. The scheduler has no caller to return
// errors to, so they are logged here.
func (s *RetentionService) runScheduled() {
	if _, err := s.RunNow(context.Background()); err != nil {
		logger.Log().WithError(err).Error("scheduled purge failed")
	}
}

// RunNow purges immediately using the configured retention.
func (s *RetentionService) RunNow(ctx context.Context) (int64, error) {
	return s.Purge(ctx, s.days)
}

// Purge deletes records older than days.
func (s *RetentionService) Purge(ctx context.Context, days int) (int64, error) {
	deleted, err := s.store.PurgeOlderThan(ctx, days)
	if err != nil {
		var se *StorageError
		if s.reporter != nil && errors.As(err, &se) {
			s.reporter.ReportStorageError(ctx, se.Op, "", se.Err)
		}
		return 0, err
	}
	metrics.AddPurged(deleted)
	logger.WithFields(logrus.Fields{"days": days, "deleted": deleted}).Info("purged old decision records")
	return deleted, nil
}
