// Package service implements the break-glass ledger: creation, settlement by
// an authorizer, revocation, and clock-driven expiry of emergency-access
// requests. Every transition lands in the audit trail.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Vumbi2018/lgis-sub001/internal/audit"
	"github.com/Vumbi2018/lgis-sub001/internal/breakglass/models"
	"github.com/Vumbi2018/lgis-sub001/internal/breakglass/store"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/metrics"
	pkgerrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
)

//go:generate mockgen -source=../store/store.go -destination=mocks/mocks.go -package=mocks Store

// Option configures the Service.
type Option func(*Service)

// Service owns the break-glass request lifecycle and enforces its guards.
type Service struct {
	store       store.Store
	auditor     *audit.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	maxDuration time.Duration
	now         func() time.Time
}

// NewService constructs the ledger over the given store and audit publisher.
func NewService(s store.Store, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:       s,
		auditor:     auditor,
		logger:      logger,
		maxDuration: models.DefaultMaxDuration,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.maxDuration <= 0 {
		svc.maxDuration = models.DefaultMaxDuration
	}
	return svc
}

// WithMetrics sets the metrics instance for the service
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMaxDuration configures the ceiling on requested elevation windows.
func WithMaxDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxDuration = d
		}
	}
}

// WithClock injects the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// CreateParams carries the requester's input for a new emergency-access
// episode. Device is an audit-only summary of the requesting client.
type CreateParams struct {
	UserID        string
	IncidentRef   string
	Justification string
	Scope         models.Scope
	Duration      time.Duration
	Device        string
}

// Create opens a pending request. Validation failures are loud; nothing is
// persisted unless every creation invariant holds.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Request, error) {
	now := s.now()
	req, err := models.NewRequest(
		params.UserID, params.IncidentRef, params.Justification,
		params.Scope, params.Duration, s.maxDuration, now,
	)
	if err != nil {
		return nil, err
	}
	req.ID = fmt.Sprintf("bg_%s", uuid.New().String())

	if err := s.store.Create(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to save break-glass request")
	}

	s.emitAudit(ctx, audit.Event{
		ActorID:   params.UserID,
		RequestID: req.ID,
		Action:    audit.ActionBreakGlassCreated,
		Status:    string(models.StatusPending),
		Reason:    params.IncidentRef,
		Device:    params.Device,
		Timestamp: now,
	})
	if s.metrics != nil {
		s.metrics.IncrementBreakGlassCreated()
	}
	s.logger.InfoContext(ctx, "break_glass_created",
		"request_id", req.ID,
		"user_id", req.UserID,
		"incident_ref", req.IncidentRef,
		"duration", req.Duration.String(),
	)
	return req, nil
}

// Approve settles a pending request and opens its enforcement window. The
// expiry is fixed from the approval time, not from first use, and the
// transition is a conditional write: losing a race with another authorizer
// surfaces as CodeConflict.
func (s *Service) Approve(ctx context.Context, requestID, authorizerID string) (*models.Request, error) {
	if authorizerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing authorizer context")
	}
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID == authorizerID {
		return nil, pkgerrors.New(pkgerrors.CodePermissionDenied, "requester cannot authorize their own emergency access")
	}

	approvedAt := s.now()
	expiresAt := approvedAt.Add(req.Duration)
	if err := s.store.Approve(ctx, requestID, authorizerID, approvedAt, expiresAt); err != nil {
		return nil, s.mapTransitionError(err, "approve")
	}

	s.emitAudit(ctx, audit.Event{
		ActorID:   authorizerID,
		RequestID: requestID,
		Action:    audit.ActionBreakGlassApproved,
		Status:    string(models.StatusApproved),
		Timestamp: approvedAt,
	})
	if s.metrics != nil {
		s.metrics.IncrementBreakGlassApproved()
		s.metrics.IncrementActiveGrants(1)
	}
	s.logger.InfoContext(ctx, "break_glass_approved",
		"request_id", requestID,
		"authorizer_id", authorizerID,
		"expires_at", expiresAt,
	)
	return s.getRequest(ctx, requestID)
}

// Deny settles a pending request without opening a window. Terminal.
func (s *Service) Deny(ctx context.Context, requestID, authorizerID, reason string) (*models.Request, error) {
	if authorizerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing authorizer context")
	}
	deniedAt := s.now()
	if err := s.store.Deny(ctx, requestID, authorizerID, deniedAt, reason); err != nil {
		return nil, s.mapTransitionError(err, "deny")
	}

	s.emitAudit(ctx, audit.Event{
		ActorID:   authorizerID,
		RequestID: requestID,
		Action:    audit.ActionBreakGlassDenied,
		Status:    string(models.StatusDenied),
		Reason:    reason,
		Timestamp: deniedAt,
	})
	if s.metrics != nil {
		s.metrics.IncrementBreakGlassDenied()
	}
	s.logger.InfoContext(ctx, "break_glass_denied",
		"request_id", requestID,
		"authorizer_id", authorizerID,
	)
	return s.getRequest(ctx, requestID)
}

// Revoke stops enforcement of an open window early. ExpiresAt is left as
// approved; only the status and revocation record change.
func (s *Service) Revoke(ctx context.Context, requestID, actorID, reason string) (*models.Request, error) {
	if actorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor context")
	}
	revokedAt := s.now()
	if err := s.store.Revoke(ctx, requestID, actorID, revokedAt, reason); err != nil {
		return nil, s.mapTransitionError(err, "revoke")
	}

	s.emitAudit(ctx, audit.Event{
		ActorID:   actorID,
		RequestID: requestID,
		Action:    audit.ActionBreakGlassRevoked,
		Status:    string(models.StatusRevoked),
		Reason:    reason,
		Timestamp: revokedAt,
	})
	if s.metrics != nil {
		s.metrics.IncrementBreakGlassRevoked()
		s.metrics.DecrementActiveGrants(1)
	}
	s.logger.WarnContext(ctx, "break_glass_revoked",
		"request_id", requestID,
		"actor_id", actorID,
		"reason", reason,
	)
	return s.getRequest(ctx, requestID)
}

// Expire flips an overdue approval to expired. Idempotent: expiring an
// already-expired request changes nothing and returns the row as-is.
// Enforcement does not depend on this being called — IsActive evaluates the
// window lazily.
func (s *Service) Expire(ctx context.Context, requestID string, now time.Time) (*models.Request, error) {
	transitioned, err := s.store.Expire(ctx, requestID, now)
	if err != nil {
		return nil, s.mapTransitionError(err, "expire")
	}
	if transitioned {
		s.recordExpiry(ctx, requestID, now)
	}
	return s.getRequest(ctx, requestID)
}

// ExpireDue sweeps every overdue approval. Optional: lazy evaluation already
// keeps enforcement correct; the sweep only settles stored rows for
// reporting. Uses the same conditional update, so it cannot race a
// concurrent revoke.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.store.ExpireDue(ctx, now)
	if err != nil {
		return 0, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to expire due break-glass requests")
	}
	for _, id := range ids {
		s.recordExpiry(ctx, id, now)
	}
	return len(ids), nil
}

// IsActive reports whether the request's enforcement window is open at the
// given instant. Missing requests are simply inactive: the read path fails
// closed rather than loud.
func (s *Service) IsActive(ctx context.Context, requestID string, now time.Time) (bool, error) {
	if requestID == "" {
		return false, nil
	}
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to read break-glass request")
	}
	return req.IsActive(now), nil
}

// Get returns one request by id.
func (s *Service) Get(ctx context.Context, requestID string) (*models.Request, error) {
	return s.getRequest(ctx, requestID)
}

// ListByUser returns the user's requests in creation order.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*models.Request, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	requests, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to list break-glass requests")
	}
	return requests, nil
}

func (s *Service) recordExpiry(ctx context.Context, requestID string, now time.Time) {
	s.emitAudit(ctx, audit.Event{
		ActorID:   "system",
		RequestID: requestID,
		Action:    audit.ActionBreakGlassExpired,
		Status:    string(models.StatusExpired),
		Timestamp: now,
	})
	if s.metrics != nil {
		s.metrics.IncrementBreakGlassExpired()
		s.metrics.DecrementActiveGrants(1)
	}
	s.logger.InfoContext(ctx, "break_glass_expired", "request_id", requestID)
}

func (s *Service) getRequest(ctx context.Context, requestID string) (*models.Request, error) {
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "break-glass request not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to read break-glass request")
	}
	return req, nil
}

func (s *Service) mapTransitionError(err error, transition string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "break-glass request not found")
	case errors.Is(err, store.ErrConflict):
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("cannot %s the request in its current state", transition))
	default:
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, fmt.Sprintf("failed to %s break-glass request", transition))
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, event)
}
