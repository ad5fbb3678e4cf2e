// Package service owns administrative changes to the field policy matrix.
// Reads on the decision path go through the evaluator; this service exists
// for the admin surface, where writes must validate loudly and leave an
// audit trail.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vumbi2018/lgis-sub001/internal/audit"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/metrics"
	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
	"github.com/Vumbi2018/lgis-sub001/internal/policy/store"
	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
)

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
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

// Service manages FieldPolicy rows.
type Service struct {
	store   store.Store
	auditor *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs the policy admin service.
func NewService(s store.Store, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  s,
		auditor: auditor,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Upsert validates and stores a policy row, replacing the whole row
// atomically. The original creation time survives updates.
func (s *Service) Upsert(ctx context.Context, actorID string, policy *models.FieldPolicy) (*models.FieldPolicy, error) {
	if actorID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor context")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	policy.CreatedAt = now
	policy.UpdatedAt = now
	existing, err := s.store.Get(ctx, policy.EntityType, policy.FieldName)
	switch {
	case err == nil:
		policy.CreatedAt = existing.CreatedAt
	case errors.Is(err, store.ErrNotFound):
		// first write for this field
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read existing policy")
	}

	if err := s.store.Upsert(ctx, policy); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save field policy")
	}

	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			ActorID:   actorID,
			RequestID: policyAuditKey(policy.EntityType, policy.FieldName),
			Action:    audit.ActionPolicyUpserted,
			Status:    "stored",
			Timestamp: now,
		})
	}
	if s.metrics != nil {
		s.metrics.IncrementPoliciesUpserted(string(policy.EntityType))
	}
	s.logger.InfoContext(ctx, "field_policy_upserted",
		"actor_id", actorID,
		"entity_type", string(policy.EntityType),
		"field_name", policy.FieldName,
	)

	copyRow := *policy
	return &copyRow, nil
}

// List returns the stored matrix for one entity type, sorted by field name.
func (s *Service) List(ctx context.Context, entityType models.EntityType) ([]*models.FieldPolicy, error) {
	if !entityType.IsValid() {
		return nil, dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("unknown entity type: %s", entityType))
	}
	rows, err := s.store.List(ctx, entityType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list field policies")
	}
	return rows, nil
}

// Get returns the effective policy for a field, falling back to the
// fail-closed default when no row is stored.
func (s *Service) Get(ctx context.Context, entityType models.EntityType, fieldName string) (*models.FieldPolicy, error) {
	if !entityType.IsValid() {
		return nil, dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("unknown entity type: %s", entityType))
	}
	policy, err := store.Resolve(ctx, s.store, entityType, fieldName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve field policy")
	}
	return policy, nil
}

func policyAuditKey(entityType models.EntityType, fieldName string) string {
	return fmt.Sprintf("policy:%s.%s", entityType, fieldName)
}
