package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Wikid82/formguard/internal/models"
	"github.com/Wikid82/formguard/internal/util"
)

var (
	ErrVisitorIDRequired   = errors.New("visitor id is required")
	ErrInvalidStatusFilter = errors.New("invalid status filter")
	ErrInvalidStatus       = errors.New("invalid log status")
	ErrInvalidRetention    = errors.New("retention days must be at least 1")
	ErrInvalidPeriod       = errors.New("period days must be at least 1")
	ErrInvalidWindow       = errors.New("window must be positive")
)

// StatusFilterAll matches records of every status in Query.
const StatusFilterAll = "all"

// Query limits.
const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// FingerprintLogService persists decision records and answers the windowed
// counts the admission checks rely on. Every call is bounded by timeout.
type FingerprintLogService struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

// NewFingerprintLogService returns a FingerprintLogService using the provided DB.
// A non-positive timeout disables the per-call deadline.
func NewFingerprintLogService(db *gorm.DB, timeout time.Duration) *FingerprintLogService {
	return &FingerprintLogService{db: db, timeout: timeout, now: time.Now}
}

func (s *FingerprintLogService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return storeContext(ctx, s.timeout)
}

// storeContext bounds one store call by timeout. A non-positive timeout
// leaves only cancellation.
func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *FingerprintLogService) utcNow() time.Time {
	return s.now().UTC()
}

// Append inserts a record and returns its id. The store assigns UUID and
// SubmissionTime; allowed records never carry a reason and only allowed
// records carry an entry id.
func (s *FingerprintLogService) Append(ctx context.Context, rec *models.FingerprintLog) (uint, error) {
	if rec.Status == "" {
		rec.Status = models.StatusAllowed
	}
	if !rec.Status.Valid() {
		return 0, ErrInvalidStatus
	}
	if rec.Status == models.StatusAllowed {
		rec.BlockReason = nil
	} else {
		rec.EntryID = nil
	}
	if rec.IPAddress == "" {
		rec.IPAddress = util.UnknownIP
	}
	rec.UserAgent = util.TruncateUserAgent(rec.UserAgent)
	rec.UUID = uuid.NewString()
	rec.SubmissionTime = s.utcNow()
	rec.ID = 0

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, &StorageError{Op: OpAppend, VisitorID: rec.VisitorID, Err: err}
	}
	return rec.ID, nil
}

// CountAllowedSince counts allowed records for visitorID newer than window.
func (s *FingerprintLogService) CountAllowedSince(ctx context.Context, visitorID string, window time.Duration) (int64, error) {
	if window <= 0 {
		return 0, ErrInvalidWindow
	}
	return s.countSince(ctx, OpCountAllowedSince, visitorID, models.StatusAllowed, window)
}

// CountSpamMarksSince counts spam records for visitorID newer than days.
func (s *FingerprintLogService) CountSpamMarksSince(ctx context.Context, visitorID string, days int) (int64, error) {
	if days < 1 {
		return 0, ErrInvalidPeriod
	}
	return s.countSince(ctx, OpCountSpamMarks, visitorID, models.StatusSpam, time.Duration(days)*24*time.Hour)
}

func (s *FingerprintLogService) countSince(ctx context.Context, op, visitorID string, status models.LogStatus, window time.Duration) (int64, error) {
	since := s.utcNow().Add(-window)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).Model(&models.FingerprintLog{}).
		Where("visitor_id = ? AND status = ? AND submission_time > ?", visitorID, status, since).
		Count(&count).Error
	if err != nil {
		return 0, &StorageError{Op: op, VisitorID: visitorID, Err: err}
	}
	return count, nil
}

// MarkSpam reclassifies every record for visitorID as spam in one statement.
// Rows already marked are left alone, so repeating the call affects nothing.
func (s *FingerprintLogService) MarkSpam(ctx context.Context, visitorID string) (int64, error) {
	if visitorID == "" {
		return 0, ErrVisitorIDRequired
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Model(&models.FingerprintLog{}).
		Where("visitor_id = ? AND status <> ?", visitorID, models.StatusSpam).
		Update("status", models.StatusSpam)
	if res.Error != nil {
		return 0, &StorageError{Op: OpMarkSpam, VisitorID: visitorID, Err: res.Error}
	}
	return res.RowsAffected, nil
}

// UnmarkSpam returns every spam record for visitorID to allowed in one statement.
func (s *FingerprintLogService) UnmarkSpam(ctx context.Context, visitorID string) (int64, error) {
	if visitorID == "" {
		return 0, ErrVisitorIDRequired
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Model(&models.FingerprintLog{}).
		Where("visitor_id = ? AND status = ?", visitorID, models.StatusSpam).
		Update("status", models.StatusAllowed)
	if res.Error != nil {
		return 0, &StorageError{Op: OpUnmarkSpam, VisitorID: visitorID, Err: res.Error}
	}
	return res.RowsAffected, nil
}

// ParseStatusFilter validates a list filter. Empty means all.
func ParseStatusFilter(filter string) (string, error) {
	if filter == "" || filter == StatusFilterAll {
		return StatusFilterAll, nil
	}
	if !models.LogStatus(filter).Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatusFilter, filter)
	}
	return filter, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultQueryLimit
	case limit > MaxQueryLimit:
		return MaxQueryLimit
	}
	return limit
}

// Query returns up to limit records matching filter, newest first.
func (s *FingerprintLogService) Query(ctx context.Context, filter string, limit int) ([]models.FingerprintLog, error) {
	filter, err := ParseStatusFilter(filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.WithContext(ctx).Order("submission_time desc").Order("id desc").Limit(clampLimit(limit))
	if filter != StatusFilterAll {
		q = q.Where("status = ?", filter)
	}

	var out []models.FingerprintLog
	if err := q.Find(&out).Error; err != nil {
		return nil, &StorageError{Op: OpQuery, Err: err}
	}
	return out, nil
}

// QueryByVisitor returns the most recent records for a single visitor.
func (s *FingerprintLogService) QueryByVisitor(ctx context.Context, visitorID string, limit int) ([]models.FingerprintLog, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out []models.FingerprintLog
	err := s.db.WithContext(ctx).Where("visitor_id = ?", visitorID).
		Order("submission_time desc").Order("id desc").
		Limit(clampLimit(limit)).
		Find(&out).Error
	if err != nil {
		return nil, &StorageError{Op: OpQueryVisitor, VisitorID: visitorID, Err: err}
	}
	return out, nil
}

// AggregateCounts returns per-status totals. A nil periodDays covers all time.
func (s *FingerprintLogService) AggregateCounts(ctx context.Context, periodDays *int) (models.LogStats, error) {
	if periodDays != nil && *periodDays < 1 {
		return models.LogStats{}, ErrInvalidPeriod
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.WithContext(ctx).Model(&models.FingerprintLog{}).Select(
		"COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS allowed, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS blocked, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS spam, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS suspicious",
		models.StatusAllowed, models.StatusBlocked, models.StatusSpam, models.StatusSuspicious,
	)
	if periodDays != nil {
		since := s.utcNow().Add(-time.Duration(*periodDays) * 24 * time.Hour)
		q = q.Where("submission_time > ?", since)
	}

	var stats models.LogStats
	if err := q.Scan(&stats).Error; err != nil {
		return models.LogStats{}, &StorageError{Op: OpAggregateCounts, Err: err}
	}
	return stats, nil
}

// PurgeOlderThan deletes records submitted more than days ago.
func (s *FingerprintLogService) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		return 0, ErrInvalidRetention
	}
	cutoff := s.utcNow().Add(-time.Duration(days) * 24 * time.Hour)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Where("submission_time < ?", cutoff).Delete(&models.FingerprintLog{})
	if res.Error != nil {
		return 0, &StorageError{Op: OpPurgeOlderThan, Err: res.Error}
	}
	return res.RowsAffected, nil
}
