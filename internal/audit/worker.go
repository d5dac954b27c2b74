package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Producer ships one serialized event to the stream. Implemented by the
// Kafka client wrapper; tests use a recording fake.
type Producer interface {
	Produce(ctx context.Context, key string, payload []byte) error
}

const (
	defaultBatchSize    = 100
	defaultPollInterval = 2 * time.Second
)

// Worker drains the outbox into the stream. Rows are deleted only after the
// producer accepts them, so a crash between publish and delete re-sends
// rather than loses (at-least-once delivery).
type Worker struct {
	store    Store
	producer Producer
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// NewWorker constructs an outbox worker.
func NewWorker(store Store, producer Producer, logger *slog.Logger) *Worker {
	return &Worker{
		store:    store,
		producer: producer,
		logger:   logger,
		interval: defaultPollInterval,
		batch:    defaultBatchSize,
	}
}

// Run polls the outbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch. Exposed for tests and for a final flush on
// shutdown.
func (w *Worker) Drain(ctx context.Context) error {
	batch, err := w.store.FetchBatch(ctx, w.batch)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(batch))
	for _, env := range batch {
		if err := w.producer.Produce(ctx, env.EventType, env.Payload); err != nil {
			// Stop at the first failure; unpublished rows stay queued.
			w.logger.WarnContext(ctx, "audit event publish failed",
				"event_type", env.EventType,
				"error", err,
			)
			break
		}
		published = append(published, env.ID)
	}
	if len(published) == 0 {
		return nil
	}
	return w.store.Delete(ctx, published)
}
