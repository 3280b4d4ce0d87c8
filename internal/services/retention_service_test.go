package services

import (
	"bytes"
	"context"
	"os"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Wikid82/formguard/internal/logger"
	"github.com/Wikid82/formguard/internal/models"
)

type stubPurger struct {
	days    []int
	deleted int64
	err     error
}

func (s *stubPurger) PurgeOlderThan(_ context.Context, days int) (int64, error) {
	s.days = append(s.days, days)
	return s.deleted, s.err
}

func TestRetentionService_RunNow(t *testing.T) {
	store, clock := newTestLogService(t)
	appendLog(t, store, "a", models.StatusAllowed, "")
	clock.Advance(31 * 24 * time.Hour)
	appendLog(t, store, "a", models.StatusAllowed, "")

	svc := NewRetentionService(store, 30, "@daily", nil)
	deleted, err := svc.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestRetentionService_ReportsStorageErrors(t *testing.T) {
	reporter := &recordingReporter{}
	purger := &stubPurger{err: &StorageError{Op: OpPurgeOlderThan, Err: errInjected}}
	svc := NewRetentionService(purger, 90, "@daily", reporter)

	_, err := svc.RunNow(context.Background())
	assert.ErrorIs(t, err, errInjected)
	require.Len(t, reporter.Reports(), 1)
	assert.Equal(t, OpPurgeOlderThan, reporter.Reports()[0].Op)

	// validation errors are returned, not reported
	purger.err = ErrInvalidRetention
	_, err = svc.Purge(context.Background(), 0)
	assert.True(t, errors.Is(err, ErrInvalidRetention))
	assert.Len(t, reporter.Reports(), 1)
}

func TestRetentionService_StartStopNoLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	purger := &stubPurger{}
	svc := NewRetentionService(purger, 90, "@every 1h", nil)
	require.NoError(t, svc.Start())
	// second start is a no-op
	require.NoError(t, svc.Start())
	svc.Stop()
	svc.Stop()
}

func TestRetentionService_Disabled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	svc := NewRetentionService(&stubPurger{}, 0, "@daily", nil)
	require.NoError(t, svc.Start())
	svc.Stop()
}

func TestRetentionService_InvalidSchedule(t *testing.T) {
	svc := NewRetentionService(&stubPurger{}, 90, "not a schedule", nil)
	assert.Error(t, svc.Start())
}

func TestRetentionService_ScheduledRunLogsErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.Init(true, buf)
	t.Cleanup(func() { logger.Init(false, os.Stdout) })

	purger := &stubPurger{err: ErrInvalidRetention}
	svc := NewRetentionService(purger, 90, "@daily", nil)
	svc.runScheduled()

	assert.Equal(t, []int{90}, purger.days)
	assert.Contains(t, buf.String(), "scheduled purge failed")
	assert.Contains(t, buf.String(), ErrInvalidRetention.Error())
}
