package login

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"ghostlogin/internal/customer"
	"ghostlogin/internal/storefront/session"
	"ghostlogin/pkg/requestcontext"

	dErrors "ghostlogin/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *customer.InMemoryDirectory, *session.InMemoryStore) {
	t.Helper()
	directory := customer.NewMemory()
	sessions := session.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(directory, sessions, time.Hour, logger), directory, sessions
}

func TestLoginCustomerByID(t *testing.T) {
	svc, directory, sessions := newTestService(t)
	directory.Seed(customer.Snapshot{ID: 42, Email: "jane@example.com", StoreScopeID: 1, Active: true})

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	sess, err := svc.LoginCustomerByID(ctx, 42, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, int64(42), sess.CustomerID)
	assert.Equal(t, int64(7), sess.ImpersonatorID)
	assert.Equal(t, now, sess.CreatedAt)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)

	stored, err := sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, stored.ID)
}

func TestLoginFreshSessionIDPerLogin(t *testing.T) {
	svc, directory, _ := newTestService(t)
	directory.Seed(customer.Snapshot{ID: 42, Email: "jane@example.com", Active: true})

	ctx := context.Background()
	first, err := svc.LoginCustomerByID(ctx, 42, 7)
	require.NoError(t, err)
	second, err := svc.LoginCustomerByID(ctx, 42, 7)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestLoginUnknownCustomer(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.LoginCustomerByID(context.Background(), 999, 7)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestLoginInactiveCustomer(t *testing.T) {
	svc, directory, _ := newTestService(t)
	directory.Seed(customer.Snapshot{ID: 42, Email: "jane@example.com", Active: false})

	_, err := svc.LoginCustomerByID(context.Background(), 42, 7)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, directory, _ := newTestService(t)
	directory.Seed(customer.Snapshot{ID: 42, Email: "jane@example.com", Active: true})

	ctx := context.Background()
	sess, err := svc.LoginCustomerByID(ctx, 42, 7)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.ID))
	require.NoError(t, svc.Logout(ctx, sess.ID))
}
