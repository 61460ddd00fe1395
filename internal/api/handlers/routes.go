package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/mahjong-ledger/internal/api/middleware"
	"github.com/dvloznov/mahjong-ledger/internal/gcsuploader"
	"github.com/dvloznov/mahjong-ledger/internal/ledger"
)

// RegisterRoutes wires every API endpoint onto mux.
func RegisterRoutes(mux *http.ServeMux, svc *ledger.Service, storage gcsuploader.StorageService, bucket string, log zerolog.Logger) {
	extractHandler := NewExtractHandler(svc, log)
	recordsHandler := NewRecordsHandler(svc, log)
	circlesHandler := NewCirclesHandler(svc, log)
	prefsHandler := NewPreferencesHandler(svc, log)
	backupHandler := NewBackupHandler(svc, storage, bucket, log)

	// Extraction endpoints
	mux.HandleFunc("/api/extract", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			extractHandler.Extract(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/extract/autofill", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			extractHandler.Autofill(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Records endpoints
	mux.HandleFunc("/api/records", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			recordsHandler.ListRecords(w, r)
		case http.MethodPost:
			recordsHandler.CreateRecord(w, r)
		case http.MethodDelete:
			recordsHandler.DeleteAllRecords(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/records/batch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			extractHandler.SaveBatch(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/records/", func(w http.ResponseWriter, r *http.Request) {
		recordID := strings.TrimPrefix(r.URL.Path, "/api/records/")
		if recordID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Record ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			recordsHandler.UpdateRecord(w, r, recordID)
		case http.MethodDelete:
			recordsHandler.DeleteRecord(w, r, recordID)
		default:
			methodNotAllowed(w)
		}
	})

	// Circles endpoints
	mux.HandleFunc("/api/circles", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			circlesHandler.ListCircles(w, r)
		case http.MethodPost:
			circlesHandler.CreateCircle(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/circles/", func(w http.ResponseWriter, r *http.Request) {
		circleID := strings.TrimPrefix(r.URL.Path, "/api/circles/")
		if circleID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Circle ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			circlesHandler.UpdateCircle(w, r, circleID)
		case http.MethodDelete:
			circlesHandler.DeleteCircle(w, r, circleID)
		default:
			methodNotAllowed(w)
		}
	})

	// Preferences endpoints
	mux.HandleFunc("/api/preferences", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			prefsHandler.GetPreferences(w, r)
		case http.MethodPut:
			prefsHandler.UpdatePreferences(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Backup endpoints
	mux.HandleFunc("/api/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			backupHandler.Export(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/import", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			backupHandler.Import(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/backups", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			backupHandler.Upload(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}
