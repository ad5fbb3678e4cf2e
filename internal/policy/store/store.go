// Package store provides durable CRUD for field policy rows, keyed by
// (entity type, field name).
package store

import (
	"context"
	"errors"

	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when no row exists for the requested key
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// ErrNotFound keeps storage-specific misses consistent across implementations.
var ErrNotFound = errors.New("field policy not found")

// Store is the persistence interface for field policy rows.
//
// Upsert replaces the whole row atomically: the five role columns are never
// visible partially applied. Implementations that assign timestamps on write
// must write the persisted values back into the given policy, so callers
// (and caches layered above) hold the row exactly as stored. Delete is
// deliberately absent — policies are configuration, not transactional data.
type Store interface {
	Get(ctx context.Context, entityType models.EntityType, fieldName string) (*models.FieldPolicy, error)
	List(ctx context.Context, entityType models.EntityType) ([]*models.FieldPolicy, error)
	Upsert(ctx context.Context, policy *models.FieldPolicy) error
}

// Resolve looks up the policy for a field, substituting the fail-closed
// default when no row exists. Unresolved lookups never fail open.
func Resolve(ctx context.Context, s Store, entityType models.EntityType, fieldName string) (*models.FieldPolicy, error) {
	p, err := s.Get(ctx, entityType, fieldName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			d := models.DefaultPolicy(entityType, fieldName)
			return &d, nil
		}
		return nil, err
	}
	return p, nil
}
