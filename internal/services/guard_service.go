package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/formguard/internal/config"
	"github.com/Wikid82/formguard/internal/logger"
	"github.com/Wikid82/formguard/internal/metrics"
	"github.com/Wikid82/formguard/internal/models"
	"github.com/Wikid82/formguard/internal/util"
)

// Messages shown to the submitter when a submission is rejected.
const (
	MsgSecurityValidationFailed = "Security validation failed. Please try again."
	MsgTooManySubmissions       = "Too many submissions detected. Please try again later."
	MsgSubmissionNotProcessed   = "Your submission could not be processed."
)

// DecisionStore is the subset of the decision log the guard writes to and
// counts from.
type DecisionStore interface {
	AllowedCounter
	SpamCounter
	Append(ctx context.Context, rec *models.FingerprintLog) (uint, error)
}

// Submission is the input for one evaluation.
type Submission struct {
	VisitorID  string
	Confidence *float64
	EntryID    *int64
	IPAddress  string
	UserAgent  string
}

// Decision is the outcome of one evaluation. Status and Reason describe the
// record that settled the outcome; LowConfidence is set when an extra
// low-confidence record was written on the way.
type Decision struct {
	Status        models.LogStatus    `json:"status"`
	Reason        *models.BlockReason `json:"reason,omitempty"`
	Rejected      bool                `json:"rejected"`
	Message       string              `json:"message,omitempty"`
	LowConfidence bool                `json:"low_confidence"`
	LogIDs        []uint              `json:"log_ids,omitempty"`
}

// GuardService evaluates submissions against the admission policy and
// records every outcome.
type GuardService struct {
	store      DecisionStore
	limiter    *RateLimiter
	reputation *ReputationService
	reporter   StorageErrorReporter

	mu  sync.RWMutex
	cfg config.GuardConfig
}

// NewGuardService returns a GuardService. cfg is sanitized before use.
func NewGuardService(store DecisionStore, reporter StorageErrorReporter, cfg config.GuardConfig) *GuardService {
	s := &GuardService{
		store:      store,
		limiter:    NewRateLimiter(store),
		reputation: NewReputationService(store),
		reporter:   reporter,
	}
	s.UpdateConfig(cfg)
	return s
}

// Config returns the active policy.
func (s *GuardService) Config() config.GuardConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateConfig replaces the active policy after clamping it and returns the
// adjustments made.
func (s *GuardService) UpdateConfig(cfg config.GuardConfig) []string {
	warnings := cfg.Sanitize()
	for _, w := range warnings {
		logger.Log().Warn(w)
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return warnings
}

// IsSentinelVisitor reports whether id is a placeholder sent by the collector
// when fingerprinting failed.
func IsSentinelVisitor(id string) bool {
	return id == models.VisitorUnavailable || id == models.VisitorError
}

// Evaluate decides whether a submission may proceed. Storage failures are
// reported and never turn into a rejection.
func (s *GuardService) Evaluate(ctx context.Context, sub Submission) Decision {
	start := time.Now()
	defer func() { metrics.ObserveEvaluate(time.Since(start).Seconds()) }()

	cfg := s.Config()
	visitorID := strings.TrimSpace(sub.VisitorID)
	base := models.FingerprintLog{
		VisitorID:       visitorID,
		ConfidenceScore: sub.Confidence,
		IPAddress:       sub.IPAddress,
		UserAgent:       sub.UserAgent,
	}

	var d Decision

	if visitorID == "" || IsSentinelVisitor(visitorID) {
		reason := models.ReasonFingerprintLoadFailed
		if visitorID == "" {
			reason = models.ReasonMissingFingerprint
		}
		s.record(ctx, &d, base, models.StatusSuspicious, reason)
		if visitorID == "" && cfg.BlockMissingFingerprint {
			s.reject(&d, MsgSecurityValidationFailed)
		}
		return d
	}

	var confidence float64
	if sub.Confidence != nil {
		confidence = *sub.Confidence
	}
	if BelowThreshold(confidence, cfg.ConfidenceThreshold) {
		s.record(ctx, &d, base, models.StatusSuspicious, models.ReasonLowConfidence)
		d.LowConfidence = true
	}

	exceeded, err := s.limiter.ExceedsRate(ctx, visitorID, cfg.RateLimit, cfg.TimeWindowHours)
	if err != nil {
		s.report(ctx, OpCountAllowedSince, visitorID, err)
	} else if exceeded {
		s.record(ctx, &d, base, models.StatusBlocked, models.ReasonRateLimit)
		s.reject(&d, MsgTooManySubmissions)
		return d
	}

	spammer, err := s.reputation.IsKnownSpammer(ctx, visitorID, cfg.SpamThreshold)
	if err != nil {
		s.report(ctx, OpCountSpamMarks, visitorID, err)
	} else if spammer {
		s.record(ctx, &d, base, models.StatusBlocked, models.ReasonKnownSpammer)
		s.reject(&d, MsgSubmissionNotProcessed)
		return d
	}

	allowed := base
	allowed.EntryID = sub.EntryID
	s.record(ctx, &d, allowed, models.StatusAllowed, "")
	return d
}

// record appends one row and folds it into d. reason is empty for allowed rows.
func (s *GuardService) record(ctx context.Context, d *Decision, rec models.FingerprintLog, status models.LogStatus, reason models.BlockReason) {
	rec.Status = status
	d.Status = status
	d.Reason = nil
	if reason != "" {
		rec.BlockReason = models.Reason(reason)
		d.Reason = models.Reason(reason)
	}
	metrics.IncDecision(string(status), string(reason))

	entry := logger.WithFields(logrus.Fields{
		"visitor_id": util.SanitizeForLog(rec.VisitorID),
		"status":     status,
		"reason":     reason,
		"ip":         rec.IPAddress,
	})
	if status == models.StatusAllowed {
		entry.Debug("submission allowed")
	} else {
		entry.Info("submission flagged")
	}

	id, err := s.store.Append(ctx, &rec)
	if err != nil {
		s.report(ctx, OpAppend, rec.VisitorID, err)
		return
	}
	d.LogIDs = append(d.LogIDs, id)
}

func (s *GuardService) reject(d *Decision, msg string) {
	d.Rejected = true
	d.Message = msg
	metrics.IncRejection()
}

func (s *GuardService) report(ctx context.Context, op, visitorID string, err error) {
	var se *StorageError
	if errors.As(err, &se) {
		op, err = se.Op, se.Err
	}
	if s.reporter == nil {
		logger.WithFields(logrus.Fields{"op": op, "visitor_id": util.SanitizeForLog(visitorID), "error": err}).Error("decision log storage failure")
		return
	}
	s.reporter.ReportStorageError(ctx, op, visitorID, err)
}
