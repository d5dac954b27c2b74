// Package handler exposes the impersonation flow over HTTP: an admin-facing
// issuance and audit surface, and the public redemption endpoint the login
// link points at.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"ghostlogin/internal/grant/models"
	"ghostlogin/internal/grant/service"
	"ghostlogin/internal/grant/store/auditlog"
	"ghostlogin/internal/storefront/session"
	"ghostlogin/pkg/platform/httputil"
	"ghostlogin/pkg/requestcontext"

	dErrors "ghostlogin/pkg/domain-errors"
)

// SessionCookie names the storefront session cookie set on redemption.
const SessionCookie = "storefront_session"

// NoticeCookie carries the generic rejection notice the storefront renders
// once after a refused login link.
const NoticeCookie = "storefront_notice"

// GrantService defines the grant lifecycle operations the handler needs.
type GrantService interface {
	Issue(ctx context.Context, req service.IssueRequest) (string, *models.AuditRecord, error)
	Validate(ctx context.Context, secret string) (*models.AuditRecord, error)
	MarkUsed(ctx context.Context, record *models.AuditRecord) error
	MarkFailed(ctx context.Context, record *models.AuditRecord, reason string)
	ListAudit(ctx context.Context, filter auditlog.Filter) ([]*models.AuditRecord, error)
}

// LoginService establishes and revokes storefront sessions.
type LoginService interface {
	LoginCustomerByID(ctx context.Context, customerID, adminID int64) (*session.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// Config holds the transport-level settings for the impersonation surface.
type Config struct {
	// Enabled gates the whole feature. When false, issuance returns 403 and
	// redemption rejects every token.
	Enabled bool

	// BaseURL is the externally reachable origin used to build login links.
	BaseURL string

	// RedirectPath is where a redeemed customer lands on the storefront.
	RedirectPath string
}

// Handler serves the impersonation endpoints.
type Handler struct {
	grants    GrantService
	login     LoginService
	logger    *slog.Logger
	config    Config
	adminOnly func(http.Handler) http.Handler
}

// New creates the impersonation handler. adminOnly guards the back-office
// routes; the redemption route stays public.
func New(grants GrantService, login LoginService, config Config, logger *slog.Logger, adminOnly func(http.Handler) http.Handler) *Handler {
	return &Handler{
		grants:    grants,
		login:     login,
		logger:    logger,
		config:    config,
		adminOnly: adminOnly,
	}
}

// Register mounts the impersonation routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.adminOnly)
		r.Post("/admin/impersonation/tokens", h.handleIssueToken)
		r.Get("/admin/impersonation/audit", h.handleListAudit)
	})
	r.Get("/login/process", h.handleProcessLogin)
}

// handleIssueToken creates a one-time login link for a customer.
func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.config.Enabled {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "impersonation is disabled"))
		return
	}

	var req IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	secret, record, err := h.grants.Issue(ctx, service.IssueRequest{
		CustomerID:   req.CustomerID,
		StoreScopeID: req.StoreScopeID,
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) || dErrors.Is(err, dErrors.CodeUnauthorized) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to issue grant",
			"request_id", requestcontext.RequestID(ctx),
			"customer_id", req.CustomerID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue token"))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, IssueTokenResponse{
		GrantID:   record.ID.String(),
		LoginURL:  h.loginURL(secret),
		ExpiresAt: record.ExpiresAt,
	})
}

// handleProcessLogin redeems a login link. Every rejection looks the same to
// the caller regardless of why the token was refused.
func (h *Handler) handleProcessLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	secret := r.URL.Query().Get("token")
	if !h.config.Enabled || secret == "" {
		h.reject(w, r)
		return
	}

	record, err := h.grants.Validate(ctx, secret)
	if err != nil {
		h.logger.ErrorContext(ctx, "grant validation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "try again later"))
		return
	}
	if record == nil {
		h.reject(w, r)
		return
	}

	sess, err := h.login.LoginCustomerByID(ctx, record.CustomerID, record.AdminID)
	if err != nil {
		h.grants.MarkFailed(ctx, record, err.Error())
		h.logger.WarnContext(ctx, "login failed after validation",
			"request_id", requestcontext.RequestID(ctx),
			"grant_id", record.ID,
			"error", err.Error(),
		)
		h.reject(w, r)
		return
	}

	// The grant settles only after the session exists. Losing the settle
	// race means another request redeemed the same token first; the session
	// built here must not survive.
	if err := h.grants.MarkUsed(ctx, record); err != nil {
		if revokeErr := h.login.Logout(ctx, sess.ID); revokeErr != nil {
			h.logger.ErrorContext(ctx, "failed to revoke session after lost redemption race",
				"request_id", requestcontext.RequestID(ctx),
				"grant_id", record.ID,
				"session_id", sess.ID,
				"error", revokeErr.Error(),
			)
		}
		h.reject(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.config.RedirectPath, http.StatusFound)
}

// handleListAudit serves the back-office audit trail.
func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseAuditFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.grants.ListAudit(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit trail",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list audit trail"))
		return
	}

	entries := make([]AuditEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, auditEntryFromRecord(record))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// reject answers every refused redemption identically: back to the storefront
// root with a generic notice. Whether the token never existed, lapsed, or was
// already spent is never disclosed.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     NoticeCookie,
		Value:    "login_link_invalid_or_expired",
		Path:     "/",
		MaxAge:   300,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) loginURL(secret string) string {
	return fmt.Sprintf("%s/login/process?token=%s", h.config.BaseURL, url.QueryEscape(secret))
}
