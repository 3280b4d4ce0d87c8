package services

import (
	"context"
)

// SpamWindowDays is the trailing window used for reputation checks. It does
// not follow the rate limit window.
const SpamWindowDays = 7

// SpamCounter counts spam-marked records for a visitor.
type SpamCounter interface {
	CountSpamMarksSince(ctx context.Context, visitorID string, days int) (int64, error)
}

// ReputationService flags visitors with enough recent spam marks.
type ReputationService struct {
	counter SpamCounter
}

// NewReputationService returns a ReputationService backed by counter.
func NewReputationService(counter SpamCounter) *ReputationService {
	return &ReputationService{counter: counter}
}

// IsKnownSpammer reports whether visitorID has at least spamThreshold spam
// records in the last SpamWindowDays.
func (r *ReputationService) IsKnownSpammer(ctx context.Context, visitorID string, spamThreshold int) (bool, error) {
	count, err := r.counter.CountSpamMarksSince(ctx, visitorID, SpamWindowDays)
	if err != nil {
		return false, err
	}
	return count >= int64(spamThreshold), nil
}
