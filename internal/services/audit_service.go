package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Wikid82/formguard/internal/models"
)

// AuditService records operator review actions.
type AuditService struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewAuditService returns an AuditService whose calls are bounded by timeout,
// like the decision log store.
func NewAuditService(db *gorm.DB, timeout time.Duration) *AuditService {
	return &AuditService{db: db, timeout: timeout}
}

// LogAudit stores an audit entry.
func (s *AuditService) LogAudit(ctx context.Context, a *models.AdminAudit) error {
	if a.UUID == "" {
		a.UUID = uuid.NewString()
	}
	ctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return &StorageError{Op: OpAuditAppend, VisitorID: a.VisitorID, Err: err}
	}
	return nil
}

// ListAudits returns recent audit entries, newest first.
func (s *AuditService) ListAudits(ctx context.Context, limit int) ([]models.AdminAudit, error) {
	ctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	var out []models.AdminAudit
	if err := s.db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(clampLimit(limit)).Find(&out).Error; err != nil {
		return nil, &StorageError{Op: OpAuditList, Err: err}
	}
	return out, nil
}
