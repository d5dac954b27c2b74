// Package auditlog persists impersonation grant records. One row per
// issuance attempt; rows are never deleted by this service, only moved
// through the one-way status lifecycle.
package auditlog

import (
	"context"
	"time"

	"ghostlogin/internal/grant/models"

	"github.com/google/uuid"
)

// Filter narrows the audit trail listing. Zero fields mean "no constraint".
type Filter struct {
	Status *models.Status
	From   *time.Time
	To     *time.Time
	Limit  int
}

// Error contract:
// - FindPendingByHash returns sentinel.ErrNotFound when no pending row matches.
// - Transition returns sentinel.ErrAlreadyUsed when the row already reached
//   success, sentinel.ErrInvalidState when it sits in any other terminal
//   state, and sentinel.ErrNotFound when the row does not exist. A transition
//   only succeeds while the current status is still pending; that
//   compare-and-swap is what keeps concurrent redemptions single-flight.
// - Infrastructure failures are returned wrapped with context.
type Store interface {
	// Create assigns identity and persists a new pending record.
	Create(ctx context.Context, record *models.AuditRecord) error

	// FindPendingByHash returns the most recent record with the given token
	// hash that is still pending. Point lookup; two pending rows never share
	// a hash.
	FindPendingByHash(ctx context.Context, hash string) (*models.AuditRecord, error)

	// Transition atomically moves a record out of pending. usedAt is stored
	// only for the success transition.
	Transition(ctx context.Context, id uuid.UUID, to models.Status, usedAt *time.Time) error

	// List returns records matching the filter, newest first. Backs the
	// admin-facing audit trail view.
	List(ctx context.Context, filter Filter) ([]*models.AuditRecord, error)
}
