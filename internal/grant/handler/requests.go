package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"ghostlogin/internal/grant/models"
	"ghostlogin/internal/grant/store/auditlog"

	dErrors "ghostlogin/pkg/domain-errors"
)

// IssueTokenRequest asks for a one-time login link for a customer.
type IssueTokenRequest struct {
	CustomerID   int64 `json:"customer_id"`
	StoreScopeID int64 `json:"store_scope_id,omitempty"`
}

func (r IssueTokenRequest) Validate() error {
	if r.CustomerID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "customer_id is required")
	}
	if r.StoreScopeID < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "store_scope_id must be positive")
	}
	return nil
}

// IssueTokenResponse carries the login link back to the admin UI. The raw
// secret appears here and nowhere else.
type IssueTokenResponse struct {
	GrantID   string    `json:"grant_id"`
	LoginURL  string    `json:"login_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuditEntry is one grant record rendered for the back-office audit view.
type AuditEntry struct {
	GrantID       string     `json:"grant_id"`
	AdminID       int64      `json:"admin_id"`
	AdminUsername string     `json:"admin_username"`
	CustomerID    int64      `json:"customer_id"`
	CustomerEmail string     `json:"customer_email"`
	IPAddress     string     `json:"ip_address,omitempty"`
	UserAgent     string     `json:"user_agent,omitempty"`
	Status        string     `json:"status"`
	StoreScopeID  int64      `json:"store_scope_id"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
}

func auditEntryFromRecord(record *models.AuditRecord) AuditEntry {
	return AuditEntry{
		GrantID:       record.ID.String(),
		AdminID:       record.AdminID,
		AdminUsername: record.AdminUsername,
		CustomerID:    record.CustomerID,
		CustomerEmail: record.CustomerEmail,
		IPAddress:     record.IPAddress,
		UserAgent:     record.UserAgent,
		Status:        string(record.Status),
		StoreScopeID:  record.StoreScopeID,
		CreatedAt:     record.CreatedAt,
		ExpiresAt:     record.ExpiresAt,
		UsedAt:        record.UsedAt,
	}
}

const maxAuditPageSize = 500

// parseAuditFilter reads list filters from the query string.
func parseAuditFilter(query url.Values) (auditlog.Filter, error) {
	var filter auditlog.Filter

	if raw := query.Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown status %q", raw))
		}
		filter.Status = &status
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "from must be RFC 3339")
		}
		filter.From = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "to must be RFC 3339")
		}
		filter.To = &to
	}

	filter.Limit = 100
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxAuditPageSize {
			return filter, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxAuditPageSize))
		}
		filter.Limit = limit
	}

	return filter, nil
}
