// Package evaluator resolves the declared access level for a (role, entity
// type, field name) triple. It is deterministic given the policy table and
// has no side effects; break-glass elevation is layered on top by the gate.
package evaluator

import (
	"context"
	"fmt"

	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
	"github.com/Vumbi2018/lgis-sub001/internal/policy/store"
	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
)

// Evaluator answers base-policy lookups against a policy store.
type Evaluator struct {
	store store.Store
}

// New constructs an evaluator over the given policy store.
func New(s store.Store) *Evaluator {
	return &Evaluator{store: s}
}

// Evaluate returns the declared access level for the role. Fields without a
// stored policy fall back to the fail-closed default; unknown roles read the
// public column. The break-glass column is never selected here.
//
// Errors: CodeConfiguration when the entity type is not part of the closed
// set; infrastructure failures are wrapped as CodeInternal. Callers on the
// read path treat any error as LevelNone.
func (e *Evaluator) Evaluate(ctx context.Context, role models.Role, entityType models.EntityType, fieldName string) (models.AccessLevel, error) {
	if !entityType.IsValid() {
		return models.LevelNone, dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("unknown entity type: %s", entityType))
	}
	policy, err := store.Resolve(ctx, e.store, entityType, fieldName)
	if err != nil {
		return models.LevelNone, dErrors.Wrap(err, dErrors.CodeInternal, "resolve field policy")
	}
	return policy.LevelFor(role), nil
}

// BreakGlassLevel returns the break-glass column for the field, used by the
// gate when a subject holds an active grant in scope.
func (e *Evaluator) BreakGlassLevel(ctx context.Context, entityType models.EntityType, fieldName string) (models.AccessLevel, error) {
	if !entityType.IsValid() {
		return models.LevelNone, dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("unknown entity type: %s", entityType))
	}
	policy, err := store.Resolve(ctx, e.store, entityType, fieldName)
	if err != nil {
		return models.LevelNone, dErrors.Wrap(err, dErrors.CodeInternal, "resolve field policy")
	}
	return policy.BreakGlass, nil
}

// Policy exposes the resolved row (stored or default) for callers that need
// the field kind alongside the level, such as the redaction formatter.
func (e *Evaluator) Policy(ctx context.Context, entityType models.EntityType, fieldName string) (*models.FieldPolicy, error) {
	if !entityType.IsValid() {
		return nil, dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("unknown entity type: %s", entityType))
	}
	policy, err := store.Resolve(ctx, e.store, entityType, fieldName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve field policy")
	}
	return policy, nil
}
