// Package worker drains the audit inbox into the durable store and, when
// configured, a Kafka sink.
package worker

import (
	"context"
	"log/slog"

	"opsconsole/internal/audit"
)

// Sink receives a copy of every event after it is stored.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	sink   Sink
	logger *slog.Logger
}

type Option func(*Worker)

func WithSink(sink Sink) Option {
	return func(w *Worker) { w.sink = sink }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func New(store audit.Store, inbox <-chan audit.Event, opts ...Option) *Worker {
	w := &Worker{store: store, inbox: inbox}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes events until ctx is cancelled. Store or sink failures are
// logged and skipped; the audit trail is best-effort and must not take the
// console down.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.warn(ctx, "audit store append failed", "action", string(event.Action), "error", err)
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, event); err != nil {
					w.warn(ctx, "audit sink publish failed", "action", string(event.Action), "error", err)
				}
			}
		}
	}
}

func (w *Worker) warn(ctx context.Context, msg string, args ...any) {
	if w.logger != nil {
		w.logger.WarnContext(ctx, msg, args...)
	}
}
