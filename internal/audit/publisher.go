package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher accepts events from domain logic and hands them to the worker
// through a buffered inbox. Emit never blocks the emitting operation: if the
// inbox is full the event is dropped with a warning, which is acceptable for
// this console's audit volume.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
	now    func() time.Time
}

type PublisherOption func(*Publisher)

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

func WithPublisherClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) { p.now = now }
}

func NewPublisher(buffer int, opts ...PublisherOption) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		inbox: make(chan Event, buffer),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit classifies and timestamps the event, then enqueues it.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Category == "" {
		event.Category = CategoryOf(event.Action)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now()
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, event dropped",
				"action", string(event.Action),
			)
		}
		return nil
	}
}

// Inbox is consumed by the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
