package session

import (
	"context"
	"testing"
	"time"

	"ghostlogin/pkg/platform/sentinel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	now := time.Now().UTC()
	original := &Session{
		ID:             "sess-1",
		CustomerID:     42,
		ImpersonatorID: 7,
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Hour),
	}
	require.NoError(t, store.Create(ctx, original))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.CustomerID)
	assert.Equal(t, int64(7), got.ImpersonatorID)

	// returned value is a copy
	got.CustomerID = 99
	again, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), again.CustomerID)

	require.NoError(t, store.Revoke(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreExpiredSessionIsGone(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	now := time.Now().UTC()
	require.NoError(t, store.Create(ctx, &Session{
		ID:         "stale",
		CustomerID: 42,
		CreatedAt:  now.Add(-2 * time.Hour),
		ExpiresAt:  now.Add(-time.Hour),
	}))

	_, err := store.Get(ctx, "stale")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreRevokeUnknown(t *testing.T) {
	err := NewMemory().Revoke(context.Background(), "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
