// Package service implements the impersonation grant lifecycle: issue a
// one-time token, validate it at redemption, and settle the record into a
// terminal status exactly once.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ghostlogin/internal/audit"
	"ghostlogin/internal/grant/metrics"
	"ghostlogin/internal/grant/models"
	"ghostlogin/internal/grant/store/auditlog"
	"ghostlogin/internal/grant/token"
	"ghostlogin/pkg/platform/sentinel"
	"ghostlogin/pkg/requestcontext"

	dErrors "ghostlogin/pkg/domain-errors"
)

type Service struct {
	store          AuditLogStore
	directory      CustomerDirectory
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	config         *Config
}

type Option func(*Service)

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg *Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func New(store AuditLogStore, directory CustomerDirectory, logger *slog.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("audit log store is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("customer directory is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	svc := &Service{
		store:          store,
		directory:      directory,
		auditPublisher: audit.NopPublisher{},
		logger:         logger,
		config:         DefaultConfig(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// IssueRequest names the customer an admin wants to act as. StoreScopeID
// zero means the configured default scope.
type IssueRequest struct {
	CustomerID   int64
	StoreScopeID int64
}

// Issue creates a single-use grant for the requesting admin. The returned
// secret is the only copy that will ever exist; the record holds its digest.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (string, *models.AuditRecord, error) {
	admin, ok := requestcontext.AdminFrom(ctx)
	if !ok {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "no authenticated admin")
	}

	snapshot, err := s.directory.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("customer %d not found", req.CustomerID))
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "look up customer")
	}
	if !snapshot.Active {
		return "", nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("customer %d is inactive", req.CustomerID))
	}

	secret, err := token.GenerateSecret()
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate grant secret")
	}

	scope := req.StoreScopeID
	if scope == 0 {
		scope = s.config.DefaultStoreScopeID
	}

	now := requestcontext.Now(ctx)
	record := &models.AuditRecord{
		AdminID:       admin.ID,
		AdminUsername: admin.Username,
		CustomerID:    snapshot.ID,
		CustomerEmail: snapshot.Email,
		TokenHash:     token.HashSecret(secret),
		IPAddress:     requestcontext.ClientIP(ctx),
		UserAgent:     requestcontext.UserAgent(ctx),
		Status:        models.StatusPending,
		StoreScopeID:  scope,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.config.TokenLifetime),
	}
	if err := s.store.Create(ctx, record); err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "persist grant record")
	}

	s.emit(ctx, audit.Event{
		Action:        audit.ActionTokenIssued,
		GrantID:       record.ID.String(),
		AdminID:       admin.ID,
		AdminUsername: admin.Username,
		CustomerID:    snapshot.ID,
	})
	if s.metrics != nil {
		s.metrics.IncrementIssued()
	}
	s.logger.InfoContext(ctx, "impersonation grant issued",
		"grant_id", record.ID,
		"admin_id", admin.ID,
		"customer_id", snapshot.ID,
		"expires_at", record.ExpiresAt,
	)

	return secret, record, nil
}

// Validate checks whether a presented secret maps to a live grant. It does
// not consume the grant; MarkUsed settles it after the login succeeds.
//
// All rejections look the same to the caller: (nil, nil). Whether the token
// never existed, was already spent, or lapsed is never revealed to the
// redeemer. Only infrastructure failures return an error.
func (s *Service) Validate(ctx context.Context, secret string) (*models.AuditRecord, error) {
	record, err := s.store.FindPendingByHash(ctx, token.HashSecret(secret))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "look up grant")
	}

	now := requestcontext.Now(ctx)
	if record.ExpiredAt(now) {
		s.settle(ctx, record, models.StatusExpired)
		s.emit(ctx, audit.Event{
			Action:     audit.ActionTokenExpired,
			GrantID:    record.ID.String(),
			AdminID:    record.AdminID,
			CustomerID: record.CustomerID,
			IPAddress:  requestcontext.ClientIP(ctx),
		})
		if s.metrics != nil {
			s.metrics.IncrementExpired()
		}
		return nil, nil
	}

	return record, nil
}

// MarkUsed settles the grant as redeemed. Exactly one caller per grant gets
// nil; a concurrent redeemer that lost the race gets sentinel.ErrAlreadyUsed
// or sentinel.ErrInvalidState and must tear down whatever it built on the
// assumption of winning. Plain persistence failures are logged and swallowed;
// the customer is already logged in and a dead grant row must not undo that.
func (s *Service) MarkUsed(ctx context.Context, record *models.AuditRecord) error {
	usedAt := requestcontext.Now(ctx)
	err := s.store.Transition(ctx, record.ID, models.StatusSuccess, &usedAt)
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) || errors.Is(err, sentinel.ErrInvalidState) || errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		s.logger.ErrorContext(ctx, "failed to settle grant as used",
			"grant_id", record.ID,
			"error", err,
		)
		return nil
	}

	s.emit(ctx, audit.Event{
		Action:        audit.ActionLoginSucceeded,
		GrantID:       record.ID.String(),
		AdminID:       record.AdminID,
		AdminUsername: record.AdminUsername,
		CustomerID:    record.CustomerID,
		IPAddress:     requestcontext.ClientIP(ctx),
	})
	if s.metrics != nil {
		s.metrics.IncrementRedeemed()
	}
	s.logger.InfoContext(ctx, "impersonation grant redeemed",
		"grant_id", record.ID,
		"admin_id", record.AdminID,
		"customer_id", record.CustomerID,
	)
	return nil
}

// MarkFailed settles the grant as failed after a login attempt could not
// complete. Best effort: every error is logged and swallowed, the caller is
// already on its rejection path.
func (s *Service) MarkFailed(ctx context.Context, record *models.AuditRecord, reason string) {
	s.settle(ctx, record, models.StatusFailed)
	s.emit(ctx, audit.Event{
		Action:     audit.ActionLoginFailed,
		GrantID:    record.ID.String(),
		AdminID:    record.AdminID,
		CustomerID: record.CustomerID,
		IPAddress:  requestcontext.ClientIP(ctx),
		Reason:     reason,
	})
	if s.metrics != nil {
		s.metrics.IncrementFailed()
	}
}

// ListAudit exposes the grant trail for back-office review.
func (s *Service) ListAudit(ctx context.Context, filter auditlog.Filter) ([]*models.AuditRecord, error) {
	records, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list grant records")
	}
	return records, nil
}

// settle moves a record to a terminal status, logging instead of failing.
// Lost races are fine here: some other path already settled the record.
func (s *Service) settle(ctx context.Context, record *models.AuditRecord, to models.Status) {
	err := s.store.Transition(ctx, record.ID, to, nil)
	if err == nil {
		record.Status = to
		return
	}
	if errors.Is(err, sentinel.ErrAlreadyUsed) || errors.Is(err, sentinel.ErrInvalidState) || errors.Is(err, sentinel.ErrNotFound) {
		return
	}
	s.logger.ErrorContext(ctx, "failed to settle grant",
		"grant_id", record.ID,
		"status", to,
		"error", err,
	)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"grant_id", event.GrantID,
			"error", err,
		)
	}
}
