package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/mahjong-ledger/internal/api/middleware"
	"github.com/dvloznov/mahjong-ledger/internal/gcsuploader"
	"github.com/dvloznov/mahjong-ledger/internal/ledger"
)

// maxImportBytes caps an uploaded backup file.
const maxImportBytes = 5 << 20

// BackupHandler handles export and import endpoints.
type BackupHandler struct {
	svc     *ledger.Service
	storage gcsuploader.StorageService
	bucket  string
	log     zerolog.Logger
}

// NewBackupHandler creates a new backup handler. storage and bucket may be
// empty, in which case cloud backups are disabled.
func NewBackupHandler(svc *ledger.Service, storage gcsuploader.StorageService, bucket string, log zerolog.Logger) *BackupHandler {
	return &BackupHandler{
		svc:     svc,
		storage: storage,
		bucket:  bucket,
		log:     log,
	}
}

// Export handles GET /api/export
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	text, err := h.svc.Export(ctx, middleware.OwnerID(ctx))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to export records")
		return
	}

	filename := "mahjong-" + time.Now().Format("20060102") + ".txt"
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

// Import handles POST /api/import. The body is either the raw backup text
// or a JSON object {"text": "..."}.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	text := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		text = req.Text
	}

	ctx := r.Context()
	res, err := h.svc.Import(ctx, middleware.OwnerID(ctx), text)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to import backup")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

// Upload handles POST /api/backups: it exports the owner's data and writes
// it to the configured bucket.
func (h *BackupHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil || h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Cloud backup is not configured")
		return
	}

	ctx := r.Context()
	ownerID := middleware.OwnerID(ctx)

	text, err := h.svc.Export(ctx, ownerID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to export records")
		return
	}

	uri := gcsuploader.BackupURI(h.bucket, ownerID, time.Now())
	if err := h.storage.UploadBackup(ctx, uri, []byte(text)); err != nil {
		h.log.Error().Err(err).Str("gcs_uri", uri).Msg("Failed to upload backup")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to upload backup")
		return
	}

	h.log.Info().Str("owner_id", ownerID).Str("gcs_uri", uri).Msg("Backup uploaded")

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"gcs_uri":  uri,
		"filename": gcsuploader.ExtractFilenameFromGCSURI(uri),
	})
}
