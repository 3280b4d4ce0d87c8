package services

import (
	"context"
	"time"
)

// AllowedCounter counts admitted submissions for a visitor.
type AllowedCounter interface {
	CountAllowedSince(ctx context.Context, visitorID string, window time.Duration) (int64, error)
}

// RateLimiter limits how many submissions a visitor gets admitted per
// trailing window. Only allowed records consume quota.
type RateLimiter struct {
	counter AllowedCounter
}

// NewRateLimiter returns a RateLimiter backed by counter.
func NewRateLimiter(counter AllowedCounter) *RateLimiter {
	return &RateLimiter{counter: counter}
}

// ExceedsRate reports whether visitorID already has limit or more allowed
// submissions within the last windowHours.
func (r *RateLimiter) ExceedsRate(ctx context.Context, visitorID string, limit, windowHours int) (bool, error) {
	count, err := r.counter.CountAllowedSince(ctx, visitorID, time.Duration(windowHours)*time.Hour)
	if err != nil {
		return false, err
	}
	return count >= int64(limit), nil
}
