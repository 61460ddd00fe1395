package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/mahjong-ledger/internal/api/middleware"
	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/ledger"
)

// ExtractHandler handles free-text extraction endpoints.
type ExtractHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewExtractHandler creates a new extraction handler.
func NewExtractHandler(svc *ledger.Service, log zerolog.Logger) *ExtractHandler {
	return &ExtractHandler{
		svc: svc,
		log: log,
	}
}

type extractRequest struct {
	Text string `json:"text"`
}

// Extract handles POST /api/extract
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	records, err := h.svc.Extract(r.Context(), middleware.OwnerID(r.Context()), req.Text)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to extract records")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// Autofill handles POST /api/extract/autofill
func (h *ExtractHandler) Autofill(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.svc.ExtractForForm(r.Context(), middleware.OwnerID(r.Context()), req.Text)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to extract records")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

// SaveBatch handles POST /api/records/batch
func (h *ExtractHandler) SaveBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Records []domain.ParsedRecord `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.svc.SaveParsed(r.Context(), middleware.OwnerID(r.Context()), req.Records)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to save records")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"records": saved,
		"count":   len(saved),
	})
}
