package api

import (
	"net/http"
	"time"

	"github.com/milestonehq/milestone/internal/opsqueue"
)

func (s *Server) handleCleanupRecommendations(w http.ResponseWriter, r *http.Request) {
	minCopies := queryInt(r, "min_copies", 2)
	limit := queryInt(r, "limit", 100)

	items, err := s.app.Catalog.CleanupRecommendations(r.Context(), minCopies, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type quarantineRequest struct {
	FileID int64 `json:"file_id"`
}

func (s *Server) handleQuarantine(w http.ResponseWriter, r *http.Request) {
	if !s.app.Config.WriteMode {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "write_mode is disabled"})
		return
	}
	var req quarantineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := opsqueue.Quarantine(r.Context(), s.app.Catalog, req.FileID, time.Now()); err != nil {
		writeError(w, err)
		return
	}
	f, err := s.app.Catalog.GetFile(r.Context(), req.FileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type restoreRequest struct {
	FileID int64 `json:"file_id"`
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if !s.app.Config.WriteMode {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "write_mode is disabled"})
		return
	}
	var req restoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := opsqueue.Restore(r.Context(), s.app.Catalog, req.FileID); err != nil {
		writeError(w, err)
		return
	}
	f, err := s.app.Catalog.GetFile(r.Context(), req.FileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
