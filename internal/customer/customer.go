// Package customer resolves storefront customer accounts for the grant
// lifecycle. The engine only ever needs a read-only snapshot; account
// management belongs to the storefront proper.
package customer

import "context"

// Snapshot is the point-in-time view of a customer taken at issuance.
type Snapshot struct {
	ID           int64
	Email        string
	StoreScopeID int64
	Active       bool
}

// Directory looks up customers by identity.
//
// Error contract: GetByID returns sentinel.ErrNotFound (wrapped) when the
// customer does not exist; infrastructure failures come back wrapped with
// context.
type Directory interface {
	GetByID(ctx context.Context, id int64) (Snapshot, error)
}
