package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks login outcomes and the per-request session lookup.
type Metrics struct {
	Logins                 *prometheus.CounterVec
	PasswordResets         *prometheus.CounterVec
	ResolveSessionDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "juntas_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"resultado"}),
		PasswordResets: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "juntas_password_resets_total",
			Help: "Password reset requests and completions",
		}, []string{"etapa"}),
		ResolveSessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "juntas_resolve_session_duration_seconds",
			Help:    "Duration of session resolution on authenticated requests",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}
}

func (m *Metrics) IncrementLogin(resultado string) {
	m.Logins.WithLabelValues(resultado).Inc()
}

func (m *Metrics) IncrementPasswordReset(etapa string) {
	m.PasswordResets.WithLabelValues(etapa).Inc()
}

// ObserveResolveSession records time since start.
func (m *Metrics) ObserveResolveSession(start time.Time) {
	m.ResolveSessionDuration.Observe(time.Since(start).Seconds())
}
