package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "formguard_decisions_total",
		Help: "Total number of decision records written, by status and reason",
	}, []string{"status", "reason"})
	rejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formguard_rejections_total",
		Help: "Total number of submissions rejected",
	})
	storageErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "formguard_storage_errors_total",
		Help: "Total number of decision log store failures, by operation",
	}, []string{"op"})
	spamMarksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "formguard_spam_mark_rows_total",
		Help: "Total number of rows changed by manual spam marking, by action",
	}, []string{"action"})
	purgedRowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formguard_purged_rows_total",
		Help: "Total number of decision records removed by retention purge",
	})
	evaluateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "formguard_evaluate_duration_seconds",
		Help:    "Time spent evaluating a submission",
		Buckets: prometheus.DefBuckets,
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(decisionsTotal, rejectionsTotal, storageErrorsTotal, spamMarksTotal, purgedRowsTotal, evaluateDuration)
}

// IncDecision increments the decision counter for a status and reason.
// reason is empty for allowed submissions.
func IncDecision(status, reason string) { decisionsTotal.WithLabelValues(status, reason).Inc() }

// IncRejection increments the rejected submissions counter.
func IncRejection() { rejectionsTotal.Inc() }

// IncStorageError increments the storage error counter for op.
func IncStorageError(op string) { storageErrorsTotal.WithLabelValues(op).Inc() }

// AddSpamMarks records rows changed by a mark or unmark action.
func AddSpamMarks(action string, rows int64) {
	spamMarksTotal.WithLabelValues(action).Add(float64(rows))
}

// AddPurged records rows removed by retention purge.
func AddPurged(rows int64) { purgedRowsTotal.Add(float64(rows)) }

// ObserveEvaluate records the duration of one evaluation in seconds.
func ObserveEvaluate(seconds float64) { evaluateDuration.Observe(seconds) }
