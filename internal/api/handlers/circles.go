package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/mahjong-ledger/internal/api/middleware"
	"github.com/dvloznov/mahjong-ledger/internal/ledger"
)

// CirclesHandler handles circle endpoints.
type CirclesHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewCirclesHandler creates a new circles handler.
func NewCirclesHandler(svc *ledger.Service, log zerolog.Logger) *CirclesHandler {
	return &CirclesHandler{
		svc: svc,
		log: log,
	}
}

// ListCircles handles GET /api/circles
func (h *CirclesHandler) ListCircles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cs, err := h.svc.ListCircles(ctx, middleware.OwnerID(ctx))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list circles")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"circles": cs,
		"count":   len(cs),
	})
}

// CreateCircle handles POST /api/circles
func (h *CirclesHandler) CreateCircle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	c, err := h.svc.CreateCircle(ctx, middleware.OwnerID(ctx), req.Name)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create circle")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, c)
}

// UpdateCircle handles PUT /api/circles/{id}. The body may rename the
// circle, make it the default, or both.
func (h *CirclesHandler) UpdateCircle(w http.ResponseWriter, r *http.Request, circleID string) {
	var req struct {
		Name      *string `json:"name"`
		IsDefault *bool   `json:"is_default"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == nil && (req.IsDefault == nil || !*req.IsDefault) {
		middleware.WriteError(w, http.StatusBadRequest, "name or is_default is required")
		return
	}

	ctx := r.Context()
	ownerID := middleware.OwnerID(ctx)

	if req.Name != nil {
		if _, err := h.svc.RenameCircle(ctx, ownerID, circleID, *req.Name); err != nil {
			writeServiceError(w, h.log, err, "Failed to rename circle")
			return
		}
	}
	if req.IsDefault != nil && *req.IsDefault {
		if err := h.svc.SetDefaultCircle(ctx, ownerID, circleID); err != nil {
			writeServiceError(w, h.log, err, "Failed to set default circle")
			return
		}
	}

	h.ListCircles(w, r)
}

// DeleteCircle handles DELETE /api/circles/{id}
func (h *CirclesHandler) DeleteCircle(w http.ResponseWriter, r *http.Request, circleID string) {
	ctx := r.Context()
	if err := h.svc.DeleteCircle(ctx, middleware.OwnerID(ctx), circleID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete circle")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
