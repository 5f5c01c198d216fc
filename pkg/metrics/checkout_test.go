package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetricsRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)
	require.NotNil(t, m.estimateOutcome)

	m.IncEstimateOutcome("ready")
	m.IncEstimateOutcome("ready")
	m.IncEstimateOutcome("unavailable")
	m.IncOrderOutcome("blocked_unavailable")
	m.IncStaleDiscard()
	m.ObserveEstimateDuration("DE", 120*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.estimateOutcome.WithLabelValues("ready")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.estimateOutcome.WithLabelValues("unavailable")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.orderOutcome.WithLabelValues("blocked_unavailable")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.staleDiscards))
}

func TestCheckoutMetricsEmptyLabel(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.IncEstimateOutcome("")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.estimateOutcome.WithLabelValues("unknown")))
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var m *CheckoutMetrics
	assert.NotPanics(t, func() {
		m.IncEstimateOutcome("ready")
		m.IncOrderOutcome("placed")
		m.IncStaleDiscard()
		m.ObserveEstimateDuration("DE", time.Second)
	})

	disabled := NewCheckoutMetrics(nil)
	assert.NotPanics(t, func() {
		disabled.IncEstimateOutcome("ready")
	})
}
