package api

import "net/http"

func (s *Server) handleHashCompute(w http.ResponseWriter, r *http.Request) {
	n, err := s.app.Hasher.EnqueuePending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !s.app.Hasher.Start(nil) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "hashing is already running"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"enqueued": n})
}

func (s *Server) handleHashStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Hasher.Status())
}

func (s *Server) handleHashStop(w http.ResponseWriter, r *http.Request) {
	s.app.Hasher.Stop()
	writeJSON(w, http.StatusOK, s.app.Hasher.Status())
}

func (s *Server) handleHashFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}
	if _, err := s.app.Catalog.GetFile(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if !s.app.Hasher.Start([]int64{id}) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "hashing is already running"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int64{"file_id": id})
}
