package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestRegisterAndIncrement(t *testing.T) {
	registry := prometheus.NewRegistry()
	Register(registry)

	before := counterValue(t, registry, "formguard_storage_errors_total")
	IncStorageError("append")
	assert.Equal(t, before+1, counterValue(t, registry, "formguard_storage_errors_total"))

	before = counterValue(t, registry, "formguard_decisions_total")
	IncDecision("blocked", "rate_limit")
	assert.Equal(t, before+1, counterValue(t, registry, "formguard_decisions_total"))

	before = counterValue(t, registry, "formguard_spam_mark_rows_total")
	AddSpamMarks("mark", 3)
	assert.Equal(t, before+3, counterValue(t, registry, "formguard_spam_mark_rows_total"))

	IncRejection()
	AddPurged(2)
	ObserveEvaluate(0.01)

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "formguard_rejections_total")
	assert.Contains(t, names, "formguard_purged_rows_total")
	assert.Contains(t, names, "formguard_evaluate_duration_seconds")
}
