package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the security core.
type Metrics struct {
	LoginAttempts      *prometheus.CounterVec
	SessionValidations *prometheus.CounterVec
	SweptRecords       *prometheus.CounterVec
}

// New registers the core counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		SessionValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_session_validations_total",
			Help: "Session validations by outcome.",
		}, []string{"outcome"}),
		SweptRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_swept_records_total",
			Help: "Records removed by the retention sweeper, by kind.",
		}, []string{"kind"}),
	}
}

// ObserveSweep is the audit.Sweeper observer hook.
func (m *Metrics) ObserveSweep(kind string, deleted int) {
	m.SweptRecords.WithLabelValues(kind).Add(float64(deleted))
}
