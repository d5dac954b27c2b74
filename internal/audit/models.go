// Package audit emits operational events for the impersonation flow. The
// grant table is the durable audit trail of record; these events are the
// streaming copy for SIEM and dashboards, shipped through a transactional
// outbox so the flow never blocks on a broker.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names what happened. Values are stable wire identifiers.
type Action string

const (
	ActionTokenIssued    Action = "token_issued"
	ActionTokenExpired   Action = "token_expired"
	ActionLoginSucceeded Action = "login_succeeded"
	ActionLoginFailed    Action = "login_failed"
)

// Event is emitted from the grant lifecycle to capture key actions. It never
// carries the raw secret; the grant id is the correlation handle.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	Action        Action    `json:"action"`
	GrantID       string    `json:"grant_id"`
	AdminID       int64     `json:"admin_id,omitempty"`
	AdminUsername string    `json:"admin_username,omitempty"`
	CustomerID    int64     `json:"customer_id,omitempty"`
	IPAddress     string    `json:"ip_address,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
}

// Envelope is one serialized outbox row awaiting publication.
type Envelope struct {
	ID        uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
}
