package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Refresher reloads the dashboard table from its source.
type Refresher interface {
	Refresh(ctx context.Context) (any, error)
}

// RefreshFunc adapts a plain function to Refresher.
type RefreshFunc func(ctx context.Context) (any, error)

func (f RefreshFunc) Refresh(ctx context.Context) (any, error) {
	return f(ctx)
}

// Handler serves the admin routes that browse Drive and force a reload.
type Handler struct {
	service   *Service
	refresher Refresher
}

func NewHandler(service *Service, refresher Refresher) *Handler {
	return &Handler{
		service:   service,
		refresher: refresher,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/api/drive/refresh", h.Refresh).Methods("POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")
	folderPath := query.Get("path")

	var err error
	if folderPath != "" {
		// Find folder by path
		folderID, err = h.service.FindFolderByPath(r.Context(), folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	files, err := h.service.ListFiles(r.Context(), folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}

	f, err := h.service.Stat(r.Context(), fileID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name+".csv"))

	if f.MimeType == MimeGoogleSheet {
		err = h.service.ExportCSV(r.Context(), fileID, w)
	} else {
		err = h.service.DownloadFile(r.Context(), fileID, w)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		http.Error(w, "refresh is not configured", http.StatusNotImplemented)
		return
	}

	summary, err := h.refresher.Refresh(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("drive refresh failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "refresh failed",
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Data refreshed successfully",
		"summary": summary,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
