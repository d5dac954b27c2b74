// Package login turns a validated impersonation grant into a live storefront
// session for the target customer.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ghostlogin/internal/customer"
	"ghostlogin/internal/storefront/session"
	"ghostlogin/pkg/platform/sentinel"
	"ghostlogin/pkg/requestcontext"

	dErrors "ghostlogin/pkg/domain-errors"

	"github.com/google/uuid"
)

// Service logs customers in on behalf of admins. It never authenticates
// credentials; the caller is expected to have already proven its right to
// assume the account.
type Service struct {
	directory  customer.Directory
	sessions   session.Store
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewService wires the login service.
func NewService(directory customer.Directory, sessions session.Store, sessionTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		directory:  directory,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// LoginCustomerByID establishes a session for the customer, recording the
// admin who assumed the account. Inactive or unknown customers are refused
// with CodeNotFound.
func (s *Service) LoginCustomerByID(ctx context.Context, customerID, adminID int64) (*session.Session, error) {
	snapshot, err := s.directory.GetByID(ctx, customerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("customer %d not found", customerID))
	}
	if !snapshot.Active {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("customer %d is inactive", customerID))
	}

	now := requestcontext.Now(ctx)
	sess := &session.Session{
		ID:             uuid.NewString(),
		CustomerID:     snapshot.ID,
		ImpersonatorID: adminID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create storefront session")
	}

	s.logger.InfoContext(ctx, "storefront session established",
		"session_id", sess.ID,
		"customer_id", snapshot.ID,
		"impersonator_id", adminID,
	)
	return sess, nil
}

// Logout revokes the session. Unknown ids are not an error; the end state
// is the same.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	return nil
}
