package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	produced [][]byte
	failFrom int // fail every call once this many have succeeded; -1 never
}

func (p *recordingProducer) Produce(_ context.Context, _ string, payload []byte) error {
	if p.failFrom >= 0 && len(p.produced) >= p.failFrom {
		return errors.New("broker unreachable")
	}
	p.produced = append(p.produced, payload)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDrainPublishesAndDeletes(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	publisher := NewPublisher(store)

	require.NoError(t, publisher.Emit(ctx, Event{Action: ActionTokenIssued, GrantID: "g1", AdminID: 7}))
	require.NoError(t, publisher.Emit(ctx, Event{Action: ActionLoginSucceeded, GrantID: "g1", CustomerID: 42}))

	producer := &recordingProducer{failFrom: -1}
	worker := NewWorker(store, producer, discardLogger())

	require.NoError(t, worker.Drain(ctx))
	require.Len(t, producer.produced, 2)

	var event Event
	require.NoError(t, json.Unmarshal(producer.produced[0], &event))
	assert.Equal(t, ActionTokenIssued, event.Action)
	assert.Equal(t, "g1", event.GrantID)
	assert.False(t, event.Timestamp.IsZero(), "publisher stamps events")

	rows, err := store.FetchBatch(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rows, "published rows are removed from the outbox")
}

func TestDrainKeepsUnpublishedRows(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	publisher := NewPublisher(store)

	require.NoError(t, publisher.Emit(ctx, Event{Action: ActionTokenIssued, GrantID: "g1"}))
	require.NoError(t, publisher.Emit(ctx, Event{Action: ActionTokenExpired, GrantID: "g2"}))

	producer := &recordingProducer{failFrom: 1}
	worker := NewWorker(store, producer, discardLogger())

	require.NoError(t, worker.Drain(ctx))
	assert.Len(t, producer.produced, 1)

	rows, err := store.FetchBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1, "the failed row stays queued for the next drain")
	assert.Equal(t, string(ActionTokenExpired), rows[0].EventType)
}
