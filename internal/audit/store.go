package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store is the transactional outbox. Append is called on the request path;
// FetchBatch and Delete belong to the publishing worker.
type Store interface {
	Append(ctx context.Context, event Event) error
	FetchBatch(ctx context.Context, limit int) ([]Envelope, error)
	Delete(ctx context.Context, ids []uuid.UUID) error
}
