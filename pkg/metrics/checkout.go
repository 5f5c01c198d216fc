package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records shipping estimation and order submission outcomes.
type CheckoutMetrics struct {
	estimateDuration *prometheus.HistogramVec
	estimateOutcome  *prometheus.CounterVec
	orderOutcome     *prometheus.CounterVec
	staleDiscards    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	estimateDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shipping_estimate_duration_seconds",
		Help:    "Duration of shipping estimate requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"country"})
	estimateOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_estimate_outcomes",
		Help: "Shipping estimate results by terminal state.",
	}, []string{"state"})
	orderOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submission_outcomes",
		Help: "Order submission attempts by outcome.",
	}, []string{"outcome"})
	staleDiscards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shipping_estimate_stale_discards",
		Help: "Shipping estimate responses discarded as stale.",
	})
	reg.MustRegister(estimateDuration, estimateOutcome, orderOutcome, staleDiscards)
	return &CheckoutMetrics{
		estimateDuration: estimateDuration,
		estimateOutcome:  estimateOutcome,
		orderOutcome:     orderOutcome,
		staleDiscards:    staleDiscards,
	}
}

// ObserveEstimateDuration records the elapsed time for an estimate request.
func (c *CheckoutMetrics) ObserveEstimateDuration(country string, duration time.Duration) {
	if c == nil || c.estimateDuration == nil {
		return
	}
	c.estimateDuration.WithLabelValues(normalizeLabel(country)).Observe(duration.Seconds())
}

// IncEstimateOutcome increments the counter for the given estimate state.
func (c *CheckoutMetrics) IncEstimateOutcome(state string) {
	if c == nil || c.estimateOutcome == nil {
		return
	}
	c.estimateOutcome.WithLabelValues(normalizeLabel(state)).Inc()
}

// IncOrderOutcome increments the counter for the given submission outcome.
func (c *CheckoutMetrics) IncOrderOutcome(outcome string) {
	if c == nil || c.orderOutcome == nil {
		return
	}
	c.orderOutcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncStaleDiscard counts a superseded estimate response thrown away on arrival.
func (c *CheckoutMetrics) IncStaleDiscard() {
	if c == nil || c.staleDiscards == nil {
		return
	}
	c.staleDiscards.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
