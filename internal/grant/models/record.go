package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status tracks one grant from issuance to its terminal outcome.
// Transitions are one-way: pending moves to exactly one of the other three
// and nothing ever leaves a terminal state.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusExpired Status = "expired"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusExpired || s == StatusFailed
}

// ParseStatus validates a status string from transport or storage.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusSuccess, StatusExpired, StatusFailed:
		return Status(raw), nil
	}
	return "", fmt.Errorf("unknown grant status %q", raw)
}

// AuditRecord is the persisted row tracking one issuance-to-redemption
// lifecycle. Admin username and customer email are denormalized snapshots
// taken at issuance so the trail stays meaningful if either account later
// changes. The raw secret is never part of this record, only its digest.
type AuditRecord struct {
	ID            uuid.UUID
	AdminID       int64
	AdminUsername string
	CustomerID    int64
	CustomerEmail string
	TokenHash     string
	IPAddress     string // empty when the caller IP is unknown
	UserAgent     string // empty when not captured
	Status        Status
	StoreScopeID  int64
	CreatedAt     time.Time
	ExpiresAt     time.Time
	UsedAt        *time.Time // set if and only if status is success
}

// ExpiredAt reports whether the grant has lapsed at the given instant.
// The boundary instant itself is still valid: expiry is strictly
// now > expires_at. Keep this the single place that comparison lives.
func (r *AuditRecord) ExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Redeemable reports whether the record can still be consumed at now.
func (r *AuditRecord) Redeemable(now time.Time) bool {
	return r.Status == StatusPending && !r.ExpiredAt(now)
}

// Clone returns a deep copy so stores can hand out records without aliasing
// their internal state.
func (r *AuditRecord) Clone() *AuditRecord {
	cp := *r
	if r.UsedAt != nil {
		usedAt := *r.UsedAt
		cp.UsedAt = &usedAt
	}
	return &cp
}
