package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/mahjong-ledger/internal/api/middleware"
	"github.com/dvloznov/mahjong-ledger/internal/ledger"
)

// PreferencesHandler handles per-owner preference endpoints.
type PreferencesHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewPreferencesHandler creates a new preferences handler.
func NewPreferencesHandler(svc *ledger.Service, log zerolog.Logger) *PreferencesHandler {
	return &PreferencesHandler{
		svc: svc,
		log: log,
	}
}

// GetPreferences handles GET /api/preferences
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prefs, err := h.svc.Preferences(ctx, middleware.OwnerID(ctx))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load preferences")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences handles PUT /api/preferences
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SelectedCircleID string `json:"selected_circle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SelectedCircleID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "selected_circle_id is required")
		return
	}

	ctx := r.Context()
	prefs, err := h.svc.SelectCircle(ctx, middleware.OwnerID(ctx), req.SelectedCircleID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to save preferences")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, prefs)
}
