package services

import (
	"fmt"
)

// Store operation names reported with storage failures.
const (
	OpAppend            = "append"
	OpCountAllowedSince = "count_allowed_since"
	OpCountSpamMarks    = "count_spam_marks_since"
	OpMarkSpam          = "mark_spam"
	OpUnmarkSpam        = "unmark_spam"
	OpQuery             = "query"
	OpAggregateCounts   = "aggregate_counts"
	OpPurgeOlderThan    = "purge_older_than"
	OpQueryVisitor      = "query_visitor"
	OpAuditAppend       = "audit_append"
	OpAuditList         = "audit_list"
)

// StorageError reports a failed or timed out decision log operation.
type StorageError struct {
	Op        string
	VisitorID string
	Err       error
}

func (e *StorageError) Error() string {
	if e.VisitorID == "" {
		return fmt.Sprintf("decision log %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("decision log %s (visitor %s): %v", e.Op, e.VisitorID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
