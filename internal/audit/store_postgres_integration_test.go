//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ghostlogin/internal/audit"
	"ghostlogin/pkg/platform/tx"
	"ghostlogin/pkg/testutil/containers"
)

type OutboxStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestOutboxStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OutboxStoreSuite))
}

func (s *OutboxStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = audit.NewPostgres(s.postgres.DB)
}

func (s *OutboxStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox"))
}

func (s *OutboxStoreSuite) TestAppendFetchDelete() {
	ctx := context.Background()

	first := audit.Event{Timestamp: time.Now().UTC(), Action: audit.ActionTokenIssued, GrantID: "g1", AdminID: 7}
	second := audit.Event{Timestamp: time.Now().UTC(), Action: audit.ActionLoginSucceeded, GrantID: "g1", CustomerID: 42}
	s.Require().NoError(s.store.Append(ctx, first))
	s.Require().NoError(s.store.Append(ctx, second))

	batch, err := s.store.FetchBatch(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(batch, 2)
	s.Equal(string(audit.ActionTokenIssued), batch[0].EventType, "oldest first")

	var decoded audit.Event
	s.Require().NoError(json.Unmarshal(batch[0].Payload, &decoded))
	s.Equal(audit.ActionTokenIssued, decoded.Action)
	s.Equal("g1", decoded.GrantID)
	s.Equal(int64(7), decoded.AdminID)

	s.Require().NoError(s.store.Delete(ctx, []uuid.UUID{batch[0].ID}))

	rest, err := s.store.FetchBatch(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(rest, 1)
	s.Equal(string(audit.ActionLoginSucceeded), rest[0].EventType)
}

func (s *OutboxStoreSuite) TestAppendJoinsCallerTransaction() {
	ctx := context.Background()

	sqlTx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	txCtx := tx.WithTx(ctx, sqlTx)
	s.Require().NoError(s.store.Append(txCtx, audit.Event{
		Timestamp: time.Now().UTC(),
		Action:    audit.ActionTokenIssued,
		GrantID:   "rolled-back",
	}))
	s.Require().NoError(sqlTx.Rollback())

	batch, err := s.store.FetchBatch(ctx, 10)
	s.Require().NoError(err)
	s.Empty(batch, "a rolled-back transaction leaves nothing in the outbox")
}

func (s *OutboxStoreSuite) TestFetchRespectsLimit() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp: time.Now().UTC(),
			Action:    audit.ActionTokenIssued,
			GrantID:   "g",
		}))
	}

	batch, err := s.store.FetchBatch(ctx, 3)
	s.Require().NoError(err)
	s.Len(batch, 3)
}
