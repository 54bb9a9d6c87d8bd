package worker

import (
	"context"
	"fmt"
	"log/slog"

	audit "juntas/pkg/platform/audit"
	txcontext "juntas/pkg/platform/tx"
)

// Worker persists audit events and forwards them to sinks. The publisher
// uses Process directly in synchronous mode and Run for its async inbox.
type Worker struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger
}

func NewWorker(store audit.Store, logger *slog.Logger, sinks ...audit.Sink) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, sinks: sinks, logger: logger}
}

// Process appends the event to the store and offers it to each sink once
// the caller's transaction, if any, has committed. Only store failures are
// returned.
func (w *Worker) Process(ctx context.Context, event audit.Event) error {
	if err := w.store.Append(ctx, event); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	if len(w.sinks) == 0 {
		return nil
	}
	txcontext.AfterCommit(ctx, func() { w.publish(context.WithoutCancel(ctx), event) })
	return nil
}

func (w *Worker) publish(ctx context.Context, event audit.Event) {
	for _, sink := range w.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			w.logger.WarnContext(ctx, "audit sink publish failed",
				"action", event.Action,
				"error", err,
				"request_id", event.RequestID,
			)
		}
	}
}

// Run drains inbox until it is closed. Store errors are logged and the
// loop keeps going.
func (w *Worker) Run(ctx context.Context, inbox <-chan audit.Event) {
	for event := range inbox {
		if err := w.Process(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "async audit persistence failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
}
