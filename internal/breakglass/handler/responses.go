package handler

import (
	"time"

	"github.com/Vumbi2018/lgis-sub001/internal/breakglass/models"
)

// RequestResponse is the API view of a break-glass request. Status reflects
// the clock: an approved request past its window reports "expired" even
// before the sweeper has settled the stored row.
type RequestResponse struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	IncidentRef      string         `json:"incident_ref"`
	Justification    string         `json:"justification"`
	Scope            ScopeResponse  `json:"scope"`
	DurationMinutes  int            `json:"duration_minutes"`
	Status           string         `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	AuthorizerID     string         `json:"authorizer_id,omitempty"`
	ApprovedAt       *time.Time     `json:"approved_at,omitempty"`
	ExpiresAt        *time.Time     `json:"expires_at,omitempty"`
	DeniedAt         *time.Time     `json:"denied_at,omitempty"`
	DenialReason     string         `json:"denial_reason,omitempty"`
	RevokedAt        *time.Time     `json:"revoked_at,omitempty"`
	RevocationReason string         `json:"revocation_reason,omitempty"`
}

// ScopeResponse mirrors the requested scope.
type ScopeResponse struct {
	Entities    []string `json:"entities"`
	Permissions []string `json:"permissions,omitempty"`
}

// ListResponse wraps a user's requests.
type ListResponse struct {
	Requests []RequestResponse `json:"requests"`
}

func toRequestResponse(req *models.Request, now time.Time) RequestResponse {
	entities := make([]string, 0, len(req.Scope.Entities))
	for _, et := range req.Scope.Entities {
		entities = append(entities, string(et))
	}
	return RequestResponse{
		ID:            req.ID,
		UserID:        req.UserID,
		IncidentRef:   req.IncidentRef,
		Justification: req.Justification,
		Scope: ScopeResponse{
			Entities:    entities,
			Permissions: req.Scope.Permissions,
		},
		DurationMinutes:  int(req.Duration.Minutes()),
		Status:           string(req.ComputeStatus(now)),
		CreatedAt:        req.CreatedAt,
		AuthorizerID:     req.AuthorizerID,
		ApprovedAt:       req.ApprovedAt,
		ExpiresAt:        req.ExpiresAt,
		DeniedAt:         req.DeniedAt,
		DenialReason:     req.DenialReason,
		RevokedAt:        req.RevokedAt,
		RevocationReason: req.RevocationReason,
	}
}

func toListResponse(requests []*models.Request, now time.Time) ListResponse {
	out := ListResponse{Requests: make([]RequestResponse, 0, len(requests))}
	for _, req := range requests {
		out.Requests = append(out.Requests, toRequestResponse(req, now))
	}
	return out
}
