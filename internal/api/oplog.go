package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleRecentLog serves the operations dashboard: the most recent audit
// entries across every file, newest first.
func (s *Server) handleRecentLog(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)

	entries, err := s.app.Catalog.RecentLog(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleFileLog serves the audit trail for a single file, newest first.
func (s *Server) handleFileLog(w http.ResponseWriter, r *http.Request) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}

	entries, err := s.app.Catalog.FileLog(r.Context(), fileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
