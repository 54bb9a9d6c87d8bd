package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the Kafka audit sink.
type Metrics struct {
	Produced            *prometheus.CounterVec
	Sampled             prometheus.Counter
	CircuitDropped      prometheus.Counter
	ProduceFailures     prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Produced: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "juntas_audit_kafka_produced_total",
			Help: "Total number of audit events produced to Kafka",
		}, []string{"category"}),
		Sampled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juntas_audit_kafka_sampled_total",
			Help: "Total number of operations events skipped by sampling",
		}),
		CircuitDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juntas_audit_kafka_circuit_dropped_total",
			Help: "Total number of audit events skipped while the circuit was open",
		}),
		ProduceFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juntas_audit_kafka_produce_failures_total",
			Help: "Total number of failed Kafka produce attempts",
		}),
		CircuitBreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "juntas_audit_kafka_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) setCircuitOpen(open bool) {
	if open {
		m.CircuitBreakerState.Set(1)
		return
	}
	m.CircuitBreakerState.Set(0)
}
