// Package handler exposes the break-glass ledger over HTTP. Requesters open
// and inspect their own requests; authorizers settle them.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Vumbi2018/lgis-sub001/internal/breakglass/models"
	"github.com/Vumbi2018/lgis-sub001/internal/breakglass/service"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/device"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/middleware"
	respond "github.com/Vumbi2018/lgis-sub001/internal/transport/http/json"
	"github.com/Vumbi2018/lgis-sub001/internal/transport/http/shared"
	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
	"github.com/Vumbi2018/lgis-sub001/pkg/validation"
)

// Service defines the ledger operations the handler delegates to.
type Service interface {
	Create(ctx context.Context, params service.CreateParams) (*models.Request, error)
	Approve(ctx context.Context, requestID, authorizerID string) (*models.Request, error)
	Deny(ctx context.Context, requestID, authorizerID, reason string) (*models.Request, error)
	Revoke(ctx context.Context, requestID, actorID, reason string) (*models.Request, error)
	Get(ctx context.Context, requestID string) (*models.Request, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Request, error)
}

// Handler handles break-glass endpoints.
type Handler struct {
	ledger Service
	logger *slog.Logger
}

// New creates a new break-glass Handler.
func New(ledger Service, logger *slog.Logger) *Handler {
	return &Handler{
		ledger: ledger,
		logger: logger,
	}
}

// Register registers the break-glass routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/breakglass/requests", h.handleCreate)
	r.Get("/breakglass/requests", h.handleList)
	r.Get("/breakglass/requests/{id}", h.handleGet)
	r.Post("/breakglass/requests/{id}/approve", h.handleApprove)
	r.Post("/breakglass/requests/{id}/deny", h.handleDeny)
	r.Post("/breakglass/requests/{id}/revoke", h.handleRevoke)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	userID := middleware.GetUserID(ctx)

	if userID == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var createReq CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		h.logger.WarnContext(ctx, "failed to decode break-glass create request",
			"request_id", requestID,
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	createReq.Normalize()
	if err := validation.Validate(&createReq); err != nil {
		shared.WriteError(w, err)
		return
	}
	scope, err := createReq.ToScope()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	created, err := h.ledger.Create(ctx, service.CreateParams{
		UserID:        userID,
		IncidentRef:   createReq.IncidentRef,
		Justification: createReq.Justification,
		Scope:         scope,
		Duration:      createReq.Duration(),
		Device:        device.Summarize(r.UserAgent()),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create break-glass request",
			"request_id", requestID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusCreated, toRequestResponse(created, time.Now()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	req, err := h.ledger.Get(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, toRequestResponse(req, time.Now()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	requests, err := h.ledger.ListByUser(ctx, userID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, toListResponse(requests, time.Now()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	authorizerID := middleware.GetUserID(ctx)

	req, err := h.ledger.Approve(ctx, id, authorizerID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to approve break-glass request",
			"request_id", middleware.GetRequestID(ctx),
			"break_glass_id", id,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, toRequestResponse(req, time.Now()))
}

func (h *Handler) handleDeny(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.ledger.Deny)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.ledger.Revoke)
}

// handleDecision factors the shared shape of deny and revoke: both carry an
// actor and a mandatory reason.
func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id, actorID, reason string) (*models.Request, error)) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	actorID := middleware.GetUserID(ctx)

	var decisionReq DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&decisionReq); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	decisionReq.Normalize()
	if err := validation.Validate(&decisionReq); err != nil {
		shared.WriteError(w, err)
		return
	}

	req, err := apply(ctx, id, actorID, decisionReq.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to settle break-glass request",
			"request_id", middleware.GetRequestID(ctx),
			"break_glass_id", id,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, toRequestResponse(req, time.Now()))
}
