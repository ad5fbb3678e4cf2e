package handler

import (
	"time"

	"github.com/Vumbi2018/lgis-sub001/internal/breakglass/models"
	policymodels "github.com/Vumbi2018/lgis-sub001/internal/policy/models"
	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
	str "github.com/Vumbi2018/lgis-sub001/pkg/string"
)

// CreateRequest is the payload for opening a break-glass request.
type CreateRequest struct {
	IncidentRef     string       `json:"incident_ref" validate:"required,max=128"`
	Justification   string       `json:"justification" validate:"required"`
	Scope           ScopeRequest `json:"scope"`
	DurationMinutes int          `json:"duration_minutes" validate:"required,min=1"`
}

// ScopeRequest narrows what the elevation may touch.
type ScopeRequest struct {
	Entities    []string `json:"entities" validate:"required,min=1,dive,notblank"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,notblank"`
}

// Normalize trims whitespace on free-text inputs. The justification is left
// untouched: its minimum length is a hard guard and silent trimming could
// push a borderline value under it.
func (r *CreateRequest) Normalize() {
	if r == nil {
		return
	}
	str.TrimStrings(&r.IncidentRef)
	str.TrimSlice(r.Scope.Entities)
	str.TrimSlice(r.Scope.Permissions)
}

// ToScope converts the request scope into domain entity types.
func (r *CreateRequest) ToScope() (models.Scope, error) {
	entities := make([]policymodels.EntityType, 0, len(r.Scope.Entities))
	for _, raw := range r.Scope.Entities {
		et, err := policymodels.ParseEntityType(raw)
		if err != nil {
			return models.Scope{}, dErrors.New(dErrors.CodeValidation, "unknown entity type in scope: "+raw)
		}
		entities = append(entities, et)
	}
	return models.Scope{
		Entities:    entities,
		Permissions: r.Scope.Permissions,
	}, nil
}

// Duration converts the requested minutes into a duration.
func (r *CreateRequest) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

// DecisionRequest carries the authorizer's reason for deny and revoke.
type DecisionRequest struct {
	Reason string `json:"reason" validate:"required,max=512"`
}

// Normalize trims the reason.
func (r *DecisionRequest) Normalize() {
	if r == nil {
		return
	}
	str.TrimStrings(&r.Reason)
}
