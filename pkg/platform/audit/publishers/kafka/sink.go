// Package kafka forwards persisted audit events to a Kafka topic for
// downstream retention and SIEM ingestion. Delivery is best effort: the
// audit_events table stays the source of truth.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "juntas/pkg/platform/audit"
)

// Config describes the target topic.
type Config struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
	// OpsSampleRate is the fraction of operations events forwarded.
	OpsSampleRate float64
}

type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// Sink implements audit.Sink on a franz-go client.
type Sink struct {
	client  producer
	topic   string
	breaker *circuitBreaker
	sampler *sampler
	metrics *Metrics
	logger  *slog.Logger
}

type Option func(*Sink)

func WithMetrics(m *Metrics) Option {
	return func(s *Sink) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) { s.logger = logger }
}

// New connects to the brokers and makes sure the topic exists.
func New(ctx context.Context, cfg Config, opts ...Option) (*Sink, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka sink requires brokers and topic")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ClientID("juntas-audit"),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := ensureTopic(ctx, kadm.NewClient(client), cfg); err != nil {
		client.Close()
		return nil, err
	}
	return newSink(client, cfg, opts...), nil
}

func newSink(client producer, cfg Config, opts ...Option) *Sink {
	s := &Sink{
		client:  client,
		topic:   cfg.Topic,
		breaker: newCircuitBreaker(5, 30*time.Second),
		sampler: newSampler(cfg.OpsSampleRate),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func ensureTopic(ctx context.Context, adm *kadm.Client, cfg Config) error {
	partitions := cfg.Partitions
	if partitions <= 0 {
		partitions = 3
	}
	rf := cfg.ReplicationFactor
	if rf <= 0 {
		rf = 1
	}
	resps, err := adm.CreateTopics(ctx, partitions, rf, nil, cfg.Topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, r := range resps {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

type payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	UsuarioID int64  `json:"usuarioId,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	IP        string `json:"ip,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Publish queues the event for production and returns immediately.
func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	if !s.sampler.keep(event) {
		if s.metrics != nil {
			s.metrics.Sampled.Inc()
		}
		return nil
	}
	if !s.breaker.allow() {
		if s.metrics != nil {
			s.metrics.CircuitDropped.Inc()
		}
		return nil
	}

	value, err := json.Marshal(payload{
		ID:        event.ID.String(),
		Category:  string(event.Category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		UsuarioID: int64(event.UsuarioID),
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		IP:        event.IP,
		Detail:    event.Detail,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Category),
		Value: value,
	}
	// The request context may be cancelled before the broker acks.
	s.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		s.onResult(event, err)
	})
	return nil
}

func (s *Sink) onResult(event audit.Event, err error) {
	if err == nil {
		s.breaker.recordSuccess()
		if s.metrics != nil {
			s.metrics.Produced.WithLabelValues(string(event.Category)).Inc()
			s.metrics.setCircuitOpen(false)
		}
		return
	}
	opened := s.breaker.recordFailure()
	if s.metrics != nil {
		s.metrics.ProduceFailures.Inc()
		s.metrics.setCircuitOpen(s.breaker.isOpen())
	}
	if opened {
		s.logger.Warn("kafka audit sink circuit opened", "error", err)
	}
}

// Close flushes buffered records and closes the client.
func (s *Sink) Close(ctx context.Context) error {
	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}
