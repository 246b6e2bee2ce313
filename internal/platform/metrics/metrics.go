package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the console.
type Metrics struct {
	AdminsProvisioned    prometheus.Counter
	ProvisioningFailures *prometheus.CounterVec
	Rollbacks            *prometheus.CounterVec
	SessionRestoreFails  prometheus.Counter
	ForcedSignOuts       prometheus.Counter
	KycTransitions       *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AdminsProvisioned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opsconsole_admins_provisioned_total",
			Help: "Administrator accounts provisioned successfully",
		}),
		ProvisioningFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsconsole_provisioning_failures_total",
			Help: "Provisioning workflow failures by step",
		}, []string{"step"}),
		Rollbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsconsole_provisioning_rollbacks_total",
			Help: "Identity rollback attempts by outcome",
		}, []string{"outcome"}),
		SessionRestoreFails: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opsconsole_session_restore_failures_total",
			Help: "Operator session restorations that failed during provisioning",
		}),
		ForcedSignOuts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opsconsole_forced_signouts_total",
			Help: "Sessions terminated because the identity was not the operator",
		}),
		KycTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsconsole_kyc_transitions_total",
			Help: "KYC status transitions by target status",
		}, []string{"status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opsconsole_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// The increment helpers are nil-safe so services can run without metrics in
// tests.

func (m *Metrics) IncAdminsProvisioned() {
	if m != nil {
		m.AdminsProvisioned.Inc()
	}
}

func (m *Metrics) IncProvisioningFailure(step string) {
	if m != nil {
		m.ProvisioningFailures.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) IncRollback(outcome string) {
	if m != nil {
		m.Rollbacks.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncSessionRestoreFailure() {
	if m != nil {
		m.SessionRestoreFails.Inc()
	}
}

func (m *Metrics) IncForcedSignOut() {
	if m != nil {
		m.ForcedSignOuts.Inc()
	}
}

func (m *Metrics) IncKycTransition(status string) {
	if m != nil {
		m.KycTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
	}
}
