package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/formguard/internal/logger"
	"github.com/Wikid82/formguard/internal/metrics"
	"github.com/Wikid82/formguard/internal/util"
)

// StorageErrorReporter receives decision log failures that must not affect
// the admission result.
type StorageErrorReporter interface {
	ReportStorageError(ctx context.Context, op, visitorID string, err error)
}

// AlertService logs and counts storage failures and, when a shoutrrr URL is
// configured, forwards them to an external channel at most once per cooldown.
type AlertService struct {
	url      string
	cooldown time.Duration
	send     func(url, message string) error
	now      func() time.Time

	mu         sync.Mutex
	lastSent   time.Time
	suppressed int
	wg         sync.WaitGroup
}

// NewAlertService returns an AlertService. An empty url disables notifications.
func NewAlertService(url string, cooldown time.Duration) *AlertService {
	return &AlertService{
		url:      url,
		cooldown: cooldown,
		send:     shoutrrr.Send,
		now:      time.Now,
	}
}

// ReportStorageError records a failed store operation.
func (s *AlertService) ReportStorageError(ctx context.Context, op, visitorID string, err error) {
	logger.WithFields(logrus.Fields{
		"op":         op,
		"visitor_id": util.SanitizeForLog(visitorID),
		"error":      err,
	}).Error("decision log storage failure")
	metrics.IncStorageError(op)

	if s.url == "" {
		return
	}

	suppressed, ok := s.reserve()
	if !ok {
		return
	}

	msg := fmt.Sprintf("FormGuard storage failure\n\nop: %s\nvisitor: %s\nerror: %v", op, util.SanitizeForLog(visitorID), err)
	if suppressed > 0 {
		msg += fmt.Sprintf("\n(%d similar failures suppressed)", suppressed)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.send(s.url, msg); err != nil {
			logger.Log().WithError(err).Warn("failed to send storage failure alert")
		}
	}()
}

func (s *AlertService) reserve() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.lastSent.IsZero() && now.Sub(s.lastSent) < s.cooldown {
		s.suppressed++
		return 0, false
	}
	suppressed := s.suppressed
	s.suppressed = 0
	s.lastSent = now
	return suppressed, true
}

// Wait blocks until in-flight notifications finish.
func (s *AlertService) Wait() {
	s.wg.Wait()
}
