package handler

import (
	"time"

	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
)

// PolicyResponse is the API view of one policy row.
type PolicyResponse struct {
	EntityType string    `json:"entity_type"`
	FieldName  string    `json:"field_name"`
	FieldKind  string    `json:"field_kind"`
	Public     string    `json:"public"`
	Officer    string    `json:"officer"`
	Manager    string    `json:"manager"`
	Admin      string    `json:"admin"`
	BreakGlass string    `json:"break_glass"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListResponse wraps the matrix for one entity type.
type ListResponse struct {
	Policies []PolicyResponse `json:"policies"`
}

func toPolicyResponse(p *models.FieldPolicy) PolicyResponse {
	return PolicyResponse{
		EntityType: string(p.EntityType),
		FieldName:  p.FieldName,
		FieldKind:  string(p.FieldKind),
		Public:     string(p.Public),
		Officer:    string(p.Officer),
		Manager:    string(p.Manager),
		Admin:      string(p.Admin),
		BreakGlass: string(p.BreakGlass),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toListResponse(rows []*models.FieldPolicy) ListResponse {
	out := ListResponse{Policies: make([]PolicyResponse, 0, len(rows))}
	for _, row := range rows {
		out.Policies = append(out.Policies, toPolicyResponse(row))
	}
	return out
}
