package api

import "net/http"

type addRootRequest struct {
	DriveID int64  `json:"drive_id"`
	Path    string `json:"path"`
}

func (s *Server) handleAddRoot(w http.ResponseWriter, r *http.Request) {
	var req addRootRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	root, err := s.app.Catalog.AddRoot(r.Context(), req.DriveID, req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, root)
}

func (s *Server) handleListRoots(w http.ResponseWriter, r *http.Request) {
	driveID := queryInt64Ptr(r, "drive_id")
	roots, err := s.app.Catalog.ListRoots(r.Context(), driveID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roots)
}

type setRootExcludedRequest struct {
	Excluded bool `json:"excluded"`
}

func (s *Server) handleSetRootExcluded(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid root id"})
		return
	}
	var req setRootExcludedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.app.Catalog.SetRootExcluded(r.Context(), id, req.Excluded); err != nil {
		writeError(w, err)
		return
	}
	root, err := s.app.Catalog.GetRoot(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}

func (s *Server) handleDeleteRoot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid root id"})
		return
	}
	if err := s.app.Catalog.DeleteRoot(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
