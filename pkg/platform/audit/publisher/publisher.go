// Package publisher is the single entry point services use to emit audit
// events. Compliance events are written synchronously and fail closed;
// security and operations events go through an optional async buffer.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"juntas/pkg/domain"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/platform/audit/worker"
	"juntas/pkg/requestcontext"
)

// ErrBufferFull is returned when the async buffer cannot take another event.
var ErrBufferFull = errors.New("audit buffer full")

type Publisher struct {
	store  audit.Store
	logger *slog.Logger
	sinks  []audit.Sink

	bufferSize int
	inbox      chan audit.Event
	worker     *worker.Worker
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables async delivery for non-compliance events.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) { p.bufferSize = size }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithSink adds a downstream sink (live hub, Kafka).
func WithSink(s audit.Sink) Option {
	return func(p *Publisher) {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	p.worker = worker.NewWorker(store, p.logger, p.sinks...)
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.worker.Run(context.Background(), p.inbox)
		}()
	}
	return p
}

// Emit enriches the event from the request context and delivers it.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	event = enrich(ctx, event)

	if p.inbox == nil || event.Category == audit.CategoryCompliance {
		if err := p.worker.Process(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit persistence failed",
				"action", event.Action,
				"usuario_id", event.UsuarioID,
				"error", err,
				"request_id", event.RequestID,
			)
			return err
		}
		return nil
	}

	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"request_id", event.RequestID,
		)
		return ErrBufferFull
	}
}

// List returns the events recorded for a user.
func (p *Publisher) List(ctx context.Context, usuarioID domain.UsuarioID) ([]audit.Event, error) {
	return p.store.ListByUsuario(ctx, usuarioID)
}

// Recent returns the newest events, optionally filtered by action.
func (p *Publisher) Recent(ctx context.Context, actions []string, limit int) ([]audit.Event, error) {
	return p.store.ListByActions(ctx, actions, limit)
}

// Close stops accepting async events and waits for the buffer to drain.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func enrich(ctx context.Context, event audit.Event) audit.Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.UsuarioID == 0 {
		event.UsuarioID = requestcontext.UsuarioID(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	return event
}
