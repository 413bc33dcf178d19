package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the submission pipeline.
// Replaces the process-global trackers of the legacy backend with an injected
// collaborator.
type IntakeMetrics struct {
	submissionsTotal  *prometheus.CounterVec
	processingSeconds *prometheus.HistogramVec
	emailTotal        *prometheus.CounterVec
	crmSyncTotal      *prometheus.CounterVec
	rateLimitedTotal  prometheus.Counter
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roi",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Total form submissions by lead tier and outcome",
		}, []string{"tier", "status"}),
		processingSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roi",
			Subsystem: "intake",
			Name:      "processing_seconds",
			Help:      "Latency of submission processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		emailTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roi",
			Subsystem: "notify",
			Name:      "email_total",
			Help:      "Total outbound emails by type and outcome",
		}, []string{"email_type", "status"}),
		crmSyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roi",
			Subsystem: "crm",
			Name:      "sync_total",
			Help:      "Total HubSpot sync operations by type and outcome",
		}, []string{"operation", "status"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roi",
			Subsystem: "intake",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.processingSeconds, m.emailTotal, m.crmSyncTotal, m.rateLimitedTotal)
	return m
}

func (m *IntakeMetrics) ObserveSubmission(tier, status string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(tier, status).Inc()
}

func (m *IntakeMetrics) ObserveProcessing(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.processingSeconds.WithLabelValues(endpoint).Observe(seconds)
}

func (m *IntakeMetrics) ObserveEmail(emailType, status string) {
	if m == nil {
		return
	}
	m.emailTotal.WithLabelValues(emailType, status).Inc()
}

func (m *IntakeMetrics) ObserveCRMSync(operation, status string) {
	if m == nil {
		return
	}
	m.crmSyncTotal.WithLabelValues(operation, status).Inc()
}

func (m *IntakeMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}
