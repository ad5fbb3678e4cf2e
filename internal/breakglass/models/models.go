// Package models holds the break-glass domain types: the emergency-access
// request, its finite status machine, and the creation-time invariants.
package models

import (
	"fmt"
	"time"

	policymodels "github.com/Vumbi2018/lgis-sub001/internal/policy/models"
	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
)

// Status is the stored lifecycle state of a break-glass request.
//
// pending → approved → expired is the happy path, with pending → denied and
// approved → revoked as exits. The enforced window ("active") is not a stored
// state: a request is active while status is approved and the clock has not
// passed ExpiresAt. Denied, revoked and expired are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusRevoked  Status = "revoked"
	StatusExpired  Status = "expired"
)

// IsValid reports whether the status is part of the closed set.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusRevoked, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can leave the status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDenied, StatusRevoked, StatusExpired:
		return true
	default:
		return false
	}
}

// MinJustificationLength is the smallest accepted justification, enforced at
// creation. Emergency access without a usable paper trail is worse than none.
const MinJustificationLength = 50

// DefaultMaxDuration caps the requested window when the host does not
// configure its own ceiling.
const DefaultMaxDuration = 8 * time.Hour

// Scope bounds what an approved request may elevate: a set of entity types
// and a set of permission strings. An entity-empty scope with permissions is
// entity-unrestricted; a wholly empty scope is rejected at creation.
type Scope struct {
	Entities    []policymodels.EntityType
	Permissions []string
}

// IsEmpty reports whether the scope grants nothing at all.
func (s Scope) IsEmpty() bool {
	return len(s.Entities) == 0 && len(s.Permissions) == 0
}

// CoversEntity reports whether the scope includes the entity type. A scope
// with no entity restriction covers every entity type.
func (s Scope) CoversEntity(entityType policymodels.EntityType) bool {
	if len(s.Entities) == 0 {
		return true
	}
	for _, e := range s.Entities {
		if e == entityType {
			return true
		}
	}
	return false
}

// Request is one emergency-access episode. Requests are never deleted; every
// terminal state is retained for audit.
type Request struct {
	ID            string
	UserID        string
	IncidentRef   string
	Justification string
	Scope         Scope
	Duration      time.Duration

	Status    Status
	CreatedAt time.Time

	AuthorizerID string
	ApprovedAt   *time.Time
	// ExpiresAt is fixed to ApprovedAt + Duration at approval and never
	// rewritten; revocation stops enforcement early without touching it.
	ExpiresAt *time.Time

	DeniedAt     *time.Time
	DenialReason string

	RevokedAt        *time.Time
	RevocationReason string
}

// NewRequest builds a pending request with creation invariants enforced.
//
// Errors: CodeValidation when the justification is shorter than
// MinJustificationLength, the scope is empty, the scope names an unknown
// entity type, or the duration is non-positive or exceeds the ceiling.
func NewRequest(userID, incidentRef, justification string, scope Scope, duration, ceiling time.Duration, now time.Time) (*Request, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing user context")
	}
	if len(justification) < MinJustificationLength {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("justification must be at least %d characters", MinJustificationLength))
	}
	if scope.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "requested scope must not be empty")
	}
	for _, e := range scope.Entities {
		if !e.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown entity type in scope: %s", e))
		}
	}
	if ceiling <= 0 {
		ceiling = DefaultMaxDuration
	}
	if duration <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "duration must be positive")
	}
	if duration > ceiling {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("duration exceeds the configured ceiling of %s", ceiling))
	}
	return &Request{
		UserID:        userID,
		IncidentRef:   incidentRef,
		Justification: justification,
		Scope:         scope,
		Duration:      duration,
		Status:        StatusPending,
		CreatedAt:     now,
	}, nil
}

// IsActive reports whether the request is inside its enforced window. Expiry
// is evaluated lazily against the clock; no sweep is required for
// correctness.
func (r Request) IsActive(now time.Time) bool {
	if r.Status != StatusApproved {
		return false
	}
	return r.ExpiresAt != nil && now.Before(*r.ExpiresAt)
}

// ComputeStatus reports the effective lifecycle state at the provided time,
// folding clock-expired approvals into StatusExpired even before a sweep has
// flipped the stored row.
func (r Request) ComputeStatus(now time.Time) Status {
	if r.Status == StatusApproved && r.ExpiresAt != nil && !now.Before(*r.ExpiresAt) {
		return StatusExpired
	}
	return r.Status
}
