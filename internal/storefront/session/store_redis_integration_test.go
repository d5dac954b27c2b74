//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ghostlogin/internal/storefront/session"
	"ghostlogin/pkg/platform/sentinel"
	"ghostlogin/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = session.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func newTestSession(ttl time.Duration) *session.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &session.Session{
		ID:             uuid.NewString(),
		CustomerID:     42,
		ImpersonatorID: 7,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	sess := newTestSession(time.Hour)

	s.Require().NoError(s.store.Create(ctx, sess))

	got, err := s.store.Get(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.ID, got.ID)
	s.Equal(int64(42), got.CustomerID)
	s.Equal(int64(7), got.ImpersonatorID)
	s.True(sess.ExpiresAt.Equal(got.ExpiresAt))
}

func (s *RedisStoreSuite) TestUnknownSession() {
	_, err := s.store.Get(context.Background(), "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestRevoke() {
	ctx := context.Background()
	sess := newTestSession(time.Hour)
	s.Require().NoError(s.store.Create(ctx, sess))

	s.Require().NoError(s.store.Revoke(ctx, sess.ID))

	_, err := s.store.Get(ctx, sess.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Revoke(ctx, sess.ID), sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestSessionsAgeOut() {
	ctx := context.Background()
	sess := newTestSession(time.Second)
	s.Require().NoError(s.store.Create(ctx, sess))

	s.Eventually(func() bool {
		_, err := s.store.Get(ctx, sess.ID)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond, "the redis TTL should evict the session")
}

func (s *RedisStoreSuite) TestExpiredSessionRejectedAtCreate() {
	sess := newTestSession(-time.Minute)
	err := s.store.Create(context.Background(), sess)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}
