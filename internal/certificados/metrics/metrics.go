package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Emitidos      *prometheus.CounterVec
	Validaciones  *prometheus.CounterVec
	RenderLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Emitidos: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "juntas_certificados_emitidos_total",
			Help: "Certificates issued, by tipo",
		}, []string{"tipo"}),
		Validaciones: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "juntas_certificados_validaciones_total",
			Help: "Public certificate validations, by outcome",
		}, []string{"resultado"}),
		RenderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "juntas_certificado_render_duration_seconds",
			Help:    "Time spent building a certificate PDF",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),
	}
}

func (m *Metrics) IncrementEmitidos(tipo string) {
	m.Emitidos.WithLabelValues(tipo).Inc()
}

func (m *Metrics) IncrementValidaciones(valido bool) {
	resultado := "rechazado"
	if valido {
		resultado = "valido"
	}
	m.Validaciones.WithLabelValues(resultado).Inc()
}

func (m *Metrics) ObserveRender(start time.Time) {
	m.RenderLatency.Observe(time.Since(start).Seconds())
}
