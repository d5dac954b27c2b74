// Package session establishes and revokes storefront customer sessions.
// This is the downstream side of redemption: the grant engine decides, this
// package acts. Session ids are freshly generated on every login so a
// pre-login id never survives into an authenticated session.
package session

import (
	"context"
	"time"
)

// Session is one logged-in storefront visit. ImpersonatorID records the
// admin who assumed the account; zero means an ordinary login.
type Session struct {
	ID             string    `json:"id"`
	CustomerID     int64     `json:"customer_id"`
	ImpersonatorID int64     `json:"impersonator_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Store persists live sessions.
//
// Error contract: Get and Revoke return sentinel.ErrNotFound (wrapped) for
// unknown or expired ids; infrastructure failures come back wrapped.
type Store interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Revoke(ctx context.Context, id string) error
}
