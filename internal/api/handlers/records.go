package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/mahjong-ledger/internal/api/middleware"
	"github.com/dvloznov/mahjong-ledger/internal/domain"
	"github.com/dvloznov/mahjong-ledger/internal/ledger"
)

// RecordsHandler handles record CRUD endpoints.
type RecordsHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(svc *ledger.Service, log zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{
		svc: svc,
		log: log,
	}
}

// ListRecords handles GET /api/records
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.svc.ListRecords(ctx, middleware.OwnerID(ctx), r.URL.Query().Get("circle_id"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list records")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// CreateRecord handles POST /api/records
func (h *RecordsHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var draft domain.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	rec, err := h.svc.CreateRecord(ctx, middleware.OwnerID(ctx), draft)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create record")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, rec)
}

// UpdateRecord handles PUT /api/records/{id}
func (h *RecordsHandler) UpdateRecord(w http.ResponseWriter, r *http.Request, recordID string) {
	var draft domain.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	rec, err := h.svc.UpdateRecord(ctx, middleware.OwnerID(ctx), recordID, draft)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update record")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rec)
}

// DeleteRecord handles DELETE /api/records/{id}
func (h *RecordsHandler) DeleteRecord(w http.ResponseWriter, r *http.Request, recordID string) {
	ctx := r.Context()
	if err := h.svc.DeleteRecord(ctx, middleware.OwnerID(ctx), recordID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllRecords handles DELETE /api/records
func (h *RecordsHandler) DeleteAllRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.OwnerID(ctx)
	if err := h.svc.DeleteAllRecords(ctx, ownerID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete records")
		return
	}

	h.log.Info().Str("owner_id", ownerID).Msg("All records deleted")
	w.WriteHeader(http.StatusNoContent)
}
