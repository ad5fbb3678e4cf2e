// Package store persists break-glass requests. Every lifecycle transition is
// a conditional write: the store checks the expected pre-state and reports
// ErrConflict when a concurrent actor got there first, so two authorizers can
// never both settle the same pending request.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Vumbi2018/lgis-sub001/internal/breakglass/models"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when no request exists for the id
// - Return ErrConflict when a transition's pre-state check failed
// - Return wrapped errors with context for infrastructure failures

var (
	ErrNotFound = errors.New("break-glass request not found")
	ErrConflict = errors.New("break-glass request already transitioned")
)

// Store is the persistence interface for break-glass requests. Rows are never
// deleted; terminal states are retained for audit.
type Store interface {
	Create(ctx context.Context, req *models.Request) error
	Get(ctx context.Context, id string) (*models.Request, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Request, error)

	// Approve transitions pending → approved, recording the authorizer and
	// fixing the expiry window in the same conditional write.
	Approve(ctx context.Context, id, authorizerID string, approvedAt, expiresAt time.Time) error
	// Deny transitions pending → denied.
	Deny(ctx context.Context, id, authorizerID string, deniedAt time.Time, reason string) error
	// Revoke transitions approved → revoked while the window is still open.
	Revoke(ctx context.Context, id, actorID string, revokedAt time.Time, reason string) error
	// Expire flips approved → expired once the window has passed. It reports
	// whether the row transitioned; re-expiring an expired row is a no-op.
	Expire(ctx context.Context, id string, now time.Time) (bool, error)
	// ExpireDue flips every overdue approved row and returns their ids.
	ExpireDue(ctx context.Context, now time.Time) ([]string, error)
}
