// Package handler exposes the policy matrix administration surface.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Vumbi2018/lgis-sub001/internal/platform/middleware"
	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
	respond "github.com/Vumbi2018/lgis-sub001/internal/transport/http/json"
	"github.com/Vumbi2018/lgis-sub001/internal/transport/http/shared"
	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
	str "github.com/Vumbi2018/lgis-sub001/pkg/string"
	"github.com/Vumbi2018/lgis-sub001/pkg/validation"
)

// Service defines the policy admin operations the handler delegates to.
type Service interface {
	Upsert(ctx context.Context, actorID string, policy *models.FieldPolicy) (*models.FieldPolicy, error)
	List(ctx context.Context, entityType models.EntityType) ([]*models.FieldPolicy, error)
	Get(ctx context.Context, entityType models.EntityType, fieldName string) (*models.FieldPolicy, error)
}

// Handler handles policy administration endpoints.
type Handler struct {
	policies Service
	logger   *slog.Logger
}

// New creates a new policy admin Handler.
func New(policies Service, logger *slog.Logger) *Handler {
	return &Handler{
		policies: policies,
		logger:   logger,
	}
}

// Register registers the admin routes with the chi router. The router is
// expected to guard these with the admin token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Put("/admin/policies", h.handleUpsert)
	r.Get("/admin/policies/{entityType}", h.handleList)
	r.Get("/admin/policies/{entityType}/{fieldName}", h.handleGet)
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var upsertReq UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&upsertReq); err != nil {
		h.logger.WarnContext(ctx, "failed to decode policy upsert request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	upsertReq.Normalize()
	if err := validation.Validate(&upsertReq); err != nil {
		shared.WriteError(w, err)
		return
	}
	policy, err := upsertReq.ToPolicy()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	stored, err := h.policies.Upsert(ctx, adminActor(r), policy)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to upsert field policy",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, toPolicyResponse(stored))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityType, err := models.ParseEntityType(chi.URLParam(r, "entityType"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown entity type"))
		return
	}

	rows, err := h.policies.List(ctx, entityType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, toListResponse(rows))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityType, err := models.ParseEntityType(chi.URLParam(r, "entityType"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown entity type"))
		return
	}

	policy, err := h.policies.Get(ctx, entityType, chi.URLParam(r, "fieldName"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, toPolicyResponse(policy))
}

// adminActor identifies who performed an admin action for the audit trail.
// The surface is token-guarded, not session-guarded, so the operator name
// comes from a header.
func adminActor(r *http.Request) string {
	return str.FirstNonEmpty(r.Header.Get("X-Admin-Actor"), "admin-token")
}
