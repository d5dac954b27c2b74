package auditlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ghostlogin/internal/grant/models"
	"ghostlogin/pkg/platform/sentinel"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists grant records in PostgreSQL. This store is pure
// I/O; expiry decisions and snapshot rules live in the service. A partial
// unique index on (token_hash) WHERE status = 'pending' backs the
// no-two-pending-rows-share-a-hash invariant.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed grant store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const recordColumns = `id, admin_id, admin_username, customer_id, customer_email,
	token_hash, ip_address, user_agent, status, store_scope_id, created_at, expires_at, used_at`

func scanRecord(row pgx.Row) (*models.AuditRecord, error) {
	var (
		record models.AuditRecord
		status string
		ip, ua *string
		usedAt *time.Time
	)
	err := row.Scan(
		&record.ID, &record.AdminID, &record.AdminUsername,
		&record.CustomerID, &record.CustomerEmail,
		&record.TokenHash, &ip, &ua, &status, &record.StoreScopeID,
		&record.CreatedAt, &record.ExpiresAt, &usedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Status = models.Status(status)
	if ip != nil {
		record.IPAddress = *ip
	}
	if ua != nil {
		record.UserAgent = *ua
	}
	record.UsedAt = usedAt
	return &record, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *PostgresStore) Create(ctx context.Context, record *models.AuditRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	query := `
		INSERT INTO login_audit (id, admin_id, admin_username, customer_id, customer_email,
			token_hash, ip_address, user_agent, status, store_scope_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.pool.Exec(ctx, query,
		record.ID, record.AdminID, record.AdminUsername,
		record.CustomerID, record.CustomerEmail,
		record.TokenHash, nullable(record.IPAddress), nullable(record.UserAgent),
		string(record.Status), record.StoreScopeID, record.CreatedAt, record.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create grant record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPendingByHash(ctx context.Context, hash string) (*models.AuditRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM login_audit
		WHERE token_hash = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`, recordColumns)
	record, err := scanRecord(s.pool.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("pending grant not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find pending grant: %w", err)
	}
	return record, nil
}

// Transition performs the conditional status update. The WHERE guard on the
// current status makes concurrent redemptions race on the database row, not
// on an in-process read: at most one caller sees a nonzero rows-affected
// count per issued grant.
func (s *PostgresStore) Transition(ctx context.Context, id uuid.UUID, to models.Status, usedAt *time.Time) error {
	query := `
		UPDATE login_audit
		SET status = $2, used_at = $3
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := s.pool.Exec(ctx, query, id, string(to), usedAt)
	if err != nil {
		return fmt.Errorf("transition grant: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Lost the race or bad id. Report which so the caller can log the reason.
	var current string
	err = s.pool.QueryRow(ctx, `SELECT status FROM login_audit WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("grant not found: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("transition grant status check: %w", err)
	}
	if models.Status(current) == models.StatusSuccess {
		return fmt.Errorf("grant already redeemed: %w", sentinel.ErrAlreadyUsed)
	}
	return fmt.Errorf("grant already %s: %w", current, sentinel.ErrInvalidState)
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.AuditRecord, error) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	limit := ""
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		limit = fmt.Sprintf("LIMIT $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT %s FROM login_audit
		%s
		ORDER BY created_at DESC
		%s
	`, recordColumns, where, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list grant records: %w", err)
	}
	defer rows.Close()

	var out []*models.AuditRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list grant records: %w", err)
	}
	return out, nil
}
