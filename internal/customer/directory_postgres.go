package customer

import (
	"context"
	"errors"
	"fmt"

	"ghostlogin/pkg/platform/sentinel"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDirectory reads customer snapshots from the storefront database.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed customer directory.
func NewPostgres(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

func (d *PostgresDirectory) GetByID(ctx context.Context, id int64) (Snapshot, error) {
	query := `
		SELECT id, email, store_scope_id, active
		FROM customers
		WHERE id = $1
	`
	var snapshot Snapshot
	err := d.pool.QueryRow(ctx, query, id).Scan(
		&snapshot.ID, &snapshot.Email, &snapshot.StoreScopeID, &snapshot.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("customer %d: %w", id, sentinel.ErrNotFound)
		}
		return Snapshot{}, fmt.Errorf("get customer: %w", err)
	}
	return snapshot, nil
}
