package service

import (
	"context"
	"time"

	"ghostlogin/internal/audit"
	"ghostlogin/internal/customer"
	"ghostlogin/internal/grant/models"
	"ghostlogin/internal/grant/store/auditlog"

	"github.com/google/uuid"
)

// AuditLogStore defines the persistence interface for grant records.
type AuditLogStore interface {
	// Create persists a new pending record and assigns its identity.
	Create(ctx context.Context, record *models.AuditRecord) error

	// FindPendingByHash returns the newest pending record for a token hash.
	FindPendingByHash(ctx context.Context, hash string) (*models.AuditRecord, error)

	// Transition moves a pending record to a terminal status.
	// Only one caller wins; losers get a sentinel error.
	Transition(ctx context.Context, id uuid.UUID, to models.Status, usedAt *time.Time) error

	// List returns records matching the filter, newest first.
	List(ctx context.Context, filter auditlog.Filter) ([]*models.AuditRecord, error)
}

// CustomerDirectory resolves customer accounts at issuance time.
type CustomerDirectory interface {
	GetByID(ctx context.Context, id int64) (customer.Snapshot, error)
}

// AuditPublisher defines the interface for publishing audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
