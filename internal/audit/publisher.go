package audit

import (
	"context"
	"time"
)

// Publisher captures structured audit events. The outbox-backed publisher is
// append-only and leaves delivery to the worker so the login flow never
// waits on a broker.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// OutboxPublisher writes events to the outbox store.
type OutboxPublisher struct {
	store Store
}

// NewPublisher constructs an outbox-backed publisher.
func NewPublisher(store Store) *OutboxPublisher {
	return &OutboxPublisher{store: store}
}

func (p *OutboxPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return p.store.Append(ctx, event)
}

// NopPublisher discards events. Used when the operational stream is disabled.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) error { return nil }
