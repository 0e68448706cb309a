package api

import (
	"context"
	"net/http"

	"github.com/milestonehq/milestone/internal/catalog"
	"github.com/milestonehq/milestone/internal/destination"
)

func (s *Server) handleListOps(w http.ResponseWriter, r *http.Request) {
	var status *catalog.OperationStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := catalog.OperationStatus(v)
		status = &st
	}
	ops, err := s.app.Catalog.ListOperations(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ops)
}

func (s *Server) handleGetOp(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid operation id"})
		return
	}
	op, err := s.app.Catalog.GetOperation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

type enqueueCopyRequest struct {
	SourceFileID int64  `json:"source_file_id"`
	DestDriveID  int64  `json:"dest_drive_id"`
	DestPath     string `json:"dest_path"`
	VerifyHash   bool   `json:"verify_hash"`
}

func (s *Server) handleEnqueueCopy(w http.ResponseWriter, r *http.Request) {
	if !s.app.Config.WriteMode {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "write_mode is disabled"})
		return
	}
	var req enqueueCopyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	op, err := s.enqueueOne(r, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, op)
}

func (s *Server) handleEnqueueCopyBatch(w http.ResponseWriter, r *http.Request) {
	if !s.app.Config.WriteMode {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "write_mode is disabled"})
		return
	}
	var reqs []enqueueCopyRequest
	if err := decodeJSON(r, &reqs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var created []*catalog.Operation
	for _, req := range reqs {
		op, err := s.enqueueOne(r, req)
		if err != nil {
			writeError(w, err)
			return
		}
		created = append(created, op)
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) enqueueOne(r *http.Request, req enqueueCopyRequest) (*catalog.Operation, error) {
	f, err := s.app.Catalog.GetFile(r.Context(), req.SourceFileID)
	if err != nil {
		return nil, err
	}
	return s.app.Catalog.EnqueueOperation(r.Context(), req.SourceFileID, req.DestDriveID, req.DestPath, f.Size, req.VerifyHash)
}

func (s *Server) handlePickDestinations(w http.ResponseWriter, r *http.Request) {
	fileID, err := pathID(r, "file_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}
	f, err := s.app.Catalog.GetFile(r.Context(), fileID)
	if err != nil {
		writeError(w, err)
		return
	}
	item, err := s.app.Catalog.ItemForFile(r.Context(), fileID)
	mediaType := catalog.MediaUnknown
	if err == nil {
		mediaType = item.Type
	}

	candidates, err := destination.Pick(r.Context(), s.app.Catalog, f.ID, mediaType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleOpPause(w http.ResponseWriter, r *http.Request) {
	s.opTransition(w, r, s.app.Catalog.PauseOperation)
}

func (s *Server) handleOpResume(w http.ResponseWriter, r *http.Request) {
	s.opTransition(w, r, s.app.Catalog.ResumeOperation)
}

func (s *Server) handleOpCancel(w http.ResponseWriter, r *http.Request) {
	s.opTransition(w, r, s.app.Catalog.CancelOperation)
}

func (s *Server) opTransition(w http.ResponseWriter, r *http.Request, transition func(ctx context.Context, id int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid operation id"})
		return
	}
	if err := transition(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	op, err := s.app.Catalog.GetOperation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Ops.Status())
}

func (s *Server) handleQueueStart(w http.ResponseWriter, r *http.Request) {
	if !s.app.Ops.Start() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "queue is already running"})
		return
	}
	writeJSON(w, http.StatusOK, s.app.Ops.Status())
}

func (s *Server) handleQueueStop(w http.ResponseWriter, r *http.Request) {
	s.app.Ops.Stop()
	writeJSON(w, http.StatusOK, s.app.Ops.Status())
}

func (s *Server) handleQueuePause(w http.ResponseWriter, r *http.Request) {
	if !s.app.Ops.Pause() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "queue is not running"})
		return
	}
	writeJSON(w, http.StatusOK, s.app.Ops.Status())
}

func (s *Server) handleQueueResume(w http.ResponseWriter, r *http.Request) {
	if !s.app.Ops.Resume() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "queue is not paused"})
		return
	}
	writeJSON(w, http.StatusOK, s.app.Ops.Status())
}

type queueConcurrencyRequest struct {
	Concurrency int `json:"concurrency"`
}

func (s *Server) handleQueueConcurrency(w http.ResponseWriter, r *http.Request) {
	var req queueConcurrencyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s.app.Ops.SetConcurrency(req.Concurrency)
	writeJSON(w, http.StatusOK, s.app.Ops.Status())
}

type addRuleRequest struct {
	RuleType string `json:"rule_type"`
	DriveID  int64  `json:"drive_id"`
	Priority int    `json:"priority"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.app.Catalog.ListRules(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req addRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	rule, err := s.app.Catalog.AddRule(r.Context(), catalog.RuleType(req.RuleType), req.DriveID, req.Priority)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rule id"})
		return
	}
	if err := s.app.Catalog.DeleteRule(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
