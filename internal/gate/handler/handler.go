// Package handler exposes the access gate to API consumers: resolve a single
// field decision, redact a whole record, or ask whether a write may proceed.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Vumbi2018/lgis-sub001/internal/gate"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/middleware"
	policymodels "github.com/Vumbi2018/lgis-sub001/internal/policy/models"
	respond "github.com/Vumbi2018/lgis-sub001/internal/transport/http/json"
	"github.com/Vumbi2018/lgis-sub001/internal/transport/http/shared"
	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
	str "github.com/Vumbi2018/lgis-sub001/pkg/string"
	"github.com/Vumbi2018/lgis-sub001/pkg/validation"
)

// Handler handles access decision endpoints.
type Handler struct {
	gate   *gate.Gate
	logger *slog.Logger
}

// New creates a new access Handler.
func New(g *gate.Gate, logger *slog.Logger) *Handler {
	return &Handler{
		gate:   g,
		logger: logger,
	}
}

// Register registers the access routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/access/resolve", h.handleResolve)
	r.Post("/access/redact", h.handleRedact)
	r.Post("/access/authorize-write", h.handleAuthorizeWrite)
}

// ResolveRequest asks for the decision on one field.
type ResolveRequest struct {
	EntityType string `json:"entity_type" validate:"required"`
	FieldName  string `json:"field_name" validate:"required,max=128"`
}

// RedactRequest asks for a filtered view of a record.
type RedactRequest struct {
	EntityType string         `json:"entity_type" validate:"required"`
	Record     map[string]any `json:"record" validate:"required"`
}

// DecisionResponse mirrors the gate's decision.
type DecisionResponse struct {
	Level   string `json:"level"`
	Source  string `json:"source"`
	GrantID string `json:"grant_id,omitempty"`
}

// RedactResponse carries the filtered record.
type RedactResponse struct {
	Record map[string]any `json:"record"`
}

// AuthorizeWriteResponse reports whether the mutation may proceed.
type AuthorizeWriteResponse struct {
	Allowed bool `json:"allowed"`
}

// subject assembles the gate subject from the authenticated session. The
// role string is passed through unparsed: the policy model treats unknown
// roles as public, which is the fail-closed behavior we want here too.
func subject(r *http.Request) gate.Subject {
	ctx := r.Context()
	return gate.Subject{
		UserID:  middleware.GetUserID(ctx),
		Role:    policymodels.Role(middleware.GetRole(ctx)),
		GrantID: middleware.GetGrantID(ctx),
	}
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var resolveReq ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&resolveReq); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	str.TrimStrings(&resolveReq.EntityType, &resolveReq.FieldName)
	if err := validation.Validate(&resolveReq); err != nil {
		shared.WriteError(w, err)
		return
	}

	decision, err := h.gate.ResolveField(ctx, subject(r),
		policymodels.EntityType(resolveReq.EntityType), resolveReq.FieldName, time.Now())
	if err != nil {
		h.logger.WarnContext(ctx, "failed to resolve field access",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, DecisionResponse{
		Level:   string(decision.Level),
		Source:  string(decision.Source),
		GrantID: decision.GrantID,
	})
}

func (h *Handler) handleRedact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var redactReq RedactRequest
	if err := json.NewDecoder(r.Body).Decode(&redactReq); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	str.TrimStrings(&redactReq.EntityType)
	if err := validation.Validate(&redactReq); err != nil {
		shared.WriteError(w, err)
		return
	}

	filtered := h.gate.Redact(ctx, subject(r),
		policymodels.EntityType(redactReq.EntityType), redactReq.Record, time.Now())
	respond.WriteJSON(w, http.StatusOK, RedactResponse{Record: filtered})
}

func (h *Handler) handleAuthorizeWrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var resolveReq ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&resolveReq); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	str.TrimStrings(&resolveReq.EntityType, &resolveReq.FieldName)
	if err := validation.Validate(&resolveReq); err != nil {
		shared.WriteError(w, err)
		return
	}

	allowed := h.gate.AuthorizeWrite(ctx, subject(r),
		policymodels.EntityType(resolveReq.EntityType), resolveReq.FieldName, time.Now())
	respond.WriteJSON(w, http.StatusOK, AuthorizeWriteResponse{Allowed: allowed})
}
