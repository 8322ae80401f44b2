package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsService owns the Prometheus collectors for the API. All methods are
// nil-safe so instrumentation stays optional in tests.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	mailsCreated        prometheus.Counter
	referralsCreated    prometheus.Counter
	referralTransitions *prometheus.CounterVec
	accessDenied        *prometheus.CounterVec
}

// NewMetricsService registers all collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtrack_http_requests_total",
			Help: "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailtrack_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		mailsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailtrack_mails_created_total",
			Help: "Mail items registered.",
		}),
		referralsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailtrack_referrals_created_total",
			Help: "Referrals created.",
		}),
		referralTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtrack_referral_transitions_total",
			Help: "Referral status transitions by target status.",
		}, []string{"status"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtrack_access_denied_total",
			Help: "Authorization denials by resource.",
		}, []string{"resource"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.mailsCreated,
		m.referralsCreated,
		m.referralTransitions,
		m.accessDenied,
	)

	return m
}

// Registry exposes the backing registry for the /metrics handler.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// ObserveRequest records one completed HTTP request.
func (m *MetricsService) ObserveRequest(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// MailCreated counts one registered mail item.
func (m *MetricsService) MailCreated() {
	if m == nil {
		return
	}
	m.mailsCreated.Inc()
}

// ReferralCreated counts one created referral.
func (m *MetricsService) ReferralCreated() {
	if m == nil {
		return
	}
	m.referralsCreated.Inc()
}

// ReferralTransition counts one lifecycle transition into the given status.
func (m *MetricsService) ReferralTransition(status string) {
	if m == nil {
		return
	}
	m.referralTransitions.WithLabelValues(status).Inc()
}

// AccessDenied counts one authorization denial on a resource kind.
func (m *MetricsService) AccessDenied(resource string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(resource).Inc()
}
