package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	JuntasCreadas        prometheus.Counter
	PeriodosCambiados    prometheus.Counter
	CambioPeriodoLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		JuntasCreadas: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juntas_juntas_creadas_total",
			Help: "Juntas registered through the API",
		}),
		PeriodosCambiados: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juntas_periodos_cambiados_total",
			Help: "Period changes committed",
		}),
		CambioPeriodoLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "juntas_cambio_periodo_duration_seconds",
			Help:    "Duration of the period change transaction",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementJuntasCreadas() {
	m.JuntasCreadas.Inc()
}

func (m *Metrics) IncrementPeriodosCambiados() {
	m.PeriodosCambiados.Inc()
}

func (m *Metrics) ObserveCambioPeriodo(start time.Time) {
	m.CambioPeriodoLatency.Observe(time.Since(start).Seconds())
}
