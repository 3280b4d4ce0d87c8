package models

import (
	"time"
)

// LogStatus is the outcome recorded for a submission.
type LogStatus string

const (
	StatusAllowed    LogStatus = "allowed"
	StatusBlocked    LogStatus = "blocked"
	StatusSpam       LogStatus = "spam"
	StatusSuspicious LogStatus = "suspicious"
)

// Valid reports whether s is one of the known statuses.
func (s LogStatus) Valid() bool {
	switch s {
	case StatusAllowed, StatusBlocked, StatusSpam, StatusSuspicious:
		return true
	}
	return false
}

// BlockReason explains a blocked or suspicious status.
type BlockReason string

const (
	ReasonRateLimit             BlockReason = "rate_limit"
	ReasonKnownSpammer          BlockReason = "known_spammer"
	ReasonLowConfidence         BlockReason = "low_confidence"
	ReasonMissingFingerprint    BlockReason = "missing_fingerprint"
	ReasonFingerprintLoadFailed BlockReason = "fingerprint_load_failed"
)

// Sentinel visitor identifiers reported by the browser collector when the
// fingerprinting agent could not produce a real id.
const (
	VisitorUnavailable = "fingerprint_unavailable"
	VisitorError       = "fingerprint_error"
)

// Reason returns a pointer to r, for use in FingerprintLog.BlockReason.
func Reason(r BlockReason) *BlockReason {
	return &r
}

// FingerprintLog is one persisted admission decision for a form submission.
// Rows are append-only except for Status, which only changes through spam
// marking, and rows are removed only by retention purge.
type FingerprintLog struct {
	ID              uint         `json:"id" gorm:"primaryKey"`
	UUID            string       `json:"uuid" gorm:"uniqueIndex"`
	VisitorID       string       `json:"visitor_id" gorm:"size:255;not null;index"`
	EntryID         *int64       `json:"entry_id,omitempty"`
	ConfidenceScore *float64     `json:"confidence_score,omitempty"`
	IPAddress       string       `json:"ip_address" gorm:"size:100"`
	UserAgent       string       `json:"user_agent" gorm:"size:255"`
	Status          LogStatus    `json:"status" gorm:"size:20;not null;default:'allowed';index"`
	BlockReason     *BlockReason `json:"block_reason,omitempty" gorm:"size:50"`
	SubmissionTime  time.Time    `json:"submission_time" gorm:"not null;index"`
}

// LogStats holds per-status totals over a period.
type LogStats struct {
	Total      int64 `json:"total"`
	Allowed    int64 `json:"allowed"`
	Blocked    int64 `json:"blocked"`
	Spam       int64 `json:"spam"`
	Suspicious int64 `json:"suspicious"`
}
