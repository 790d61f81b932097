package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes recorded by ContactMetrics.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeInvalid = "invalid"
)

// ContactMetrics exposes counters/histograms for the contact form flow.
type ContactMetrics struct {
	submissionsTotal *prometheus.CounterVec
	sendLatency      *prometheus.HistogramVec
	rateLimitedTotal prometheus.Counter
}

func NewContactMetrics(reg prometheus.Registerer) *ContactMetrics {
	m := &ContactMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contact",
			Name:      "submissions_total",
			Help:      "Contact form submissions by outcome",
		}, []string{"outcome"}),
		sendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contact",
			Name:      "mail_send_seconds",
			Help:      "Latency of outbound mail sends",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contact",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-address rate limit",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.sendLatency, m.rateLimitedTotal)
	return m
}

func (m *ContactMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *ContactMetrics) ObserveSendLatency(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.sendLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *ContactMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}
