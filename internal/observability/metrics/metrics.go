package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the submission pipeline.
type LeadMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	sideEffectFailures *prometheus.CounterVec
	submitLatency      *prometheus.HistogramVec
	throttledTotal     prometheus.Counter
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Form submissions by intake and outcome",
		}, []string{"intake", "outcome"}),
		sideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Subsystem: "leads",
			Name:      "side_effect_failures_total",
			Help:      "Best-effort steps (storage, notify, publish) that failed after a lead was accepted",
		}, []string{"intake", "kind"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agency",
			Subsystem: "leads",
			Name:      "submit_latency_seconds",
			Help:      "Latency of the submission pipeline",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intake"}),
		throttledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agency",
			Subsystem: "http",
			Name:      "throttled_total",
			Help:      "Requests rejected by the per-IP throttle",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.sideEffectFailures, m.submitLatency, m.throttledTotal)
	return m
}

func (m *LeadMetrics) ObserveSubmission(intake, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(intake, outcome).Inc()
}

func (m *LeadMetrics) ObserveSideEffectFailure(intake, kind string) {
	if m == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(intake, kind).Inc()
}

func (m *LeadMetrics) ObserveLatency(intake string, seconds float64) {
	if m == nil {
		return
	}
	m.submitLatency.WithLabelValues(intake).Observe(seconds)
}

func (m *LeadMetrics) ObserveThrottled() {
	if m == nil {
		return
	}
	m.throttledTotal.Inc()
}
