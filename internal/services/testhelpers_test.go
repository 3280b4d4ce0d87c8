package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Wikid82/formguard/internal/models"
)

// setupLogTestDB opens an in-memory database unique to the test.
func setupLogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_journal_mode=WAL&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.FingerprintLog{}, &models.AdminUser{}, &models.AdminAudit{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLogService(t *testing.T) (*FingerprintLogService, *testClock) {
	t.Helper()
	clock := newTestClock()
	svc := NewFingerprintLogService(setupLogTestDB(t), time.Second)
	svc.now = clock.Now
	return svc, clock
}

type reportedError struct {
	Op        string
	VisitorID string
	Err       error
}

// recordingReporter captures storage failures.
type recordingReporter struct {
	mu      sync.Mutex
	reports []reportedError
}

func (r *recordingReporter) ReportStorageError(_ context.Context, op, visitorID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, reportedError{Op: op, VisitorID: visitorID, Err: err})
}

func (r *recordingReporter) Reports() []reportedError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reportedError(nil), r.reports...)
}

// faultyStore wraps a real store and fails selected operations.
type faultyStore struct {
	DecisionStore
	failAppend     bool
	failCountAllow bool
	failCountSpam  bool
	appendAttempts []models.FingerprintLog
}

var errInjected = errors.New("injected failure")

func (f *faultyStore) Append(ctx context.Context, rec *models.FingerprintLog) (uint, error) {
	f.appendAttempts = append(f.appendAttempts, *rec)
	if f.failAppend {
		return 0, &StorageError{Op: OpAppend, VisitorID: rec.VisitorID, Err: errInjected}
	}
	return f.DecisionStore.Append(ctx, rec)
}

func (f *faultyStore) CountAllowedSince(ctx context.Context, visitorID string, window time.Duration) (int64, error) {
	if f.failCountAllow {
		return 0, &StorageError{Op: OpCountAllowedSince, VisitorID: visitorID, Err: errInjected}
	}
	return f.DecisionStore.CountAllowedSince(ctx, visitorID, window)
}

func (f *faultyStore) CountSpamMarksSince(ctx context.Context, visitorID string, days int) (int64, error) {
	if f.failCountSpam {
		return 0, &StorageError{Op: OpCountSpamMarks, VisitorID: visitorID, Err: errInjected}
	}
	return f.DecisionStore.CountSpamMarksSince(ctx, visitorID, days)
}

func floatPtr(f float64) *float64 { return &f }

func int64Ptr(i int64) *int64 { return &i }
