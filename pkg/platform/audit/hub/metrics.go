package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the live audit hub.
type Metrics struct {
	Subscribers prometheus.Gauge
	Dropped     prometheus.Counter
}

// NewMetrics registers the hub metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "juntas_audit_hub_subscribers",
			Help: "Number of live log stream subscribers",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juntas_audit_hub_dropped_total",
			Help: "Total number of events dropped because a subscriber buffer was full",
		}),
	}
}
