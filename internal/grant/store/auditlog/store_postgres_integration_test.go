//go:build integration

package auditlog_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ghostlogin/internal/grant/models"
	"ghostlogin/internal/grant/store/auditlog"
	"ghostlogin/pkg/platform/sentinel"
	"ghostlogin/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auditlog.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = auditlog.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "login_audit"))
}

func newTestRecord(hash string) *models.AuditRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.AuditRecord{
		AdminID:       7,
		AdminUsername: "support.jane",
		CustomerID:    42,
		CustomerEmail: "jane@example.com",
		TokenHash:     hash,
		IPAddress:     "203.0.113.9",
		UserAgent:     "Firefox 142 on Linux",
		Status:        models.StatusPending,
		StoreScopeID:  1,
		CreatedAt:     now,
		ExpiresAt:     now.Add(5 * time.Minute),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFindPending() {
	ctx := context.Background()
	record := newTestRecord("hash-" + uuid.NewString())

	s.Require().NoError(s.store.Create(ctx, record))
	s.NotEqual(uuid.Nil, record.ID)

	found, err := s.store.FindPendingByHash(ctx, record.TokenHash)
	s.Require().NoError(err)
	s.Equal(record.ID, found.ID)
	s.Equal(record.AdminUsername, found.AdminUsername)
	s.Equal(record.CustomerEmail, found.CustomerEmail)
	s.Equal(record.IPAddress, found.IPAddress)
	s.True(record.ExpiresAt.Equal(found.ExpiresAt))
	s.Nil(found.UsedAt)

	_, err = s.store.FindPendingByHash(ctx, "no-such-hash")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicatePendingHashRejected() {
	ctx := context.Background()
	hash := "hash-" + uuid.NewString()

	s.Require().NoError(s.store.Create(ctx, newTestRecord(hash)))
	s.Error(s.store.Create(ctx, newTestRecord(hash)), "partial unique index must reject a second pending row")

	// Settling the first row frees the hash for reissue.
	first, err := s.store.FindPendingByHash(ctx, hash)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Transition(ctx, first.ID, models.StatusFailed, nil))
	s.NoError(s.store.Create(ctx, newTestRecord(hash)))
}

func (s *PostgresStoreSuite) TestTransition() {
	ctx := context.Background()

	s.Run("success records used_at", func() {
		record := newTestRecord("hash-" + uuid.NewString())
		s.Require().NoError(s.store.Create(ctx, record))

		usedAt := time.Now().UTC().Truncate(time.Microsecond)
		s.Require().NoError(s.store.Transition(ctx, record.ID, models.StatusSuccess, &usedAt))

		_, err := s.store.FindPendingByHash(ctx, record.TokenHash)
		s.ErrorIs(err, sentinel.ErrNotFound)

		status := models.StatusSuccess
		records, err := s.store.List(ctx, auditlog.Filter{Status: &status})
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Require().NotNil(records[0].UsedAt)
		s.True(usedAt.Equal(*records[0].UsedAt))
	})

	s.Run("second transition reports already used", func() {
		record := newTestRecord("hash-" + uuid.NewString())
		s.Require().NoError(s.store.Create(ctx, record))

		usedAt := time.Now().UTC()
		s.Require().NoError(s.store.Transition(ctx, record.ID, models.StatusSuccess, &usedAt))

		err := s.store.Transition(ctx, record.ID, models.StatusFailed, nil)
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("transition out of failed reports invalid state", func() {
		record := newTestRecord("hash-" + uuid.NewString())
		s.Require().NoError(s.store.Create(ctx, record))
		s.Require().NoError(s.store.Transition(ctx, record.ID, models.StatusFailed, nil))

		usedAt := time.Now().UTC()
		err := s.store.Transition(ctx, record.ID, models.StatusSuccess, &usedAt)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown id reports not found", func() {
		err := s.store.Transition(ctx, uuid.New(), models.StatusFailed, nil)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentRedemptionSingleFlight drives many concurrent success
// transitions at one grant. The row-level compare-and-swap must let exactly
// one through.
func (s *PostgresStoreSuite) TestConcurrentRedemptionSingleFlight() {
	ctx := context.Background()
	record := newTestRecord("hash-" + uuid.NewString())
	s.Require().NoError(s.store.Create(ctx, record))

	const goroutines = 50
	var wg sync.WaitGroup
	var successCount, lostCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			usedAt := time.Now().UTC()
			err := s.store.Transition(ctx, record.ID, models.StatusSuccess, &usedAt)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				lostCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one redemption should win")
	s.Equal(int32(goroutines-1), lostCount.Load(), "all others should lose the race")
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()

	old := newTestRecord("hash-" + uuid.NewString())
	old.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	s.Require().NoError(s.store.Create(ctx, old))
	s.Require().NoError(s.store.Transition(ctx, old.ID, models.StatusExpired, nil))

	fresh := newTestRecord("hash-" + uuid.NewString())
	s.Require().NoError(s.store.Create(ctx, fresh))

	all, err := s.store.List(ctx, auditlog.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(fresh.ID, all[0].ID, "newest first")

	status := models.StatusExpired
	expired, err := s.store.List(ctx, auditlog.Filter{Status: &status})
	s.Require().NoError(err)
	s.Require().Len(expired, 1)
	s.Equal(old.ID, expired[0].ID)

	cutoff := time.Now().UTC().Add(-time.Hour)
	recent, err := s.store.List(ctx, auditlog.Filter{From: &cutoff})
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(fresh.ID, recent[0].ID)

	limited, err := s.store.List(ctx, auditlog.Filter{Limit: 1})
	s.Require().NoError(err)
	s.Len(limited, 1)
}
