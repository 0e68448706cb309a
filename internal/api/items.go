package api

import (
	"net/http"

	"github.com/milestonehq/milestone/internal/catalog"
)

type itemsResponse struct {
	Items []*catalog.ItemWithCopies `json:"items"`
	Total int                       `json:"total"`
	Page  int                       `json:"page"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ItemFilter{
		Search:   r.URL.Query().Get("search"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 50),
	}
	if v := r.URL.Query().Get("type"); v != "" {
		t := catalog.MediaType(v)
		filter.Type = &t
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st := catalog.ItemStatus(v)
		filter.Status = &st
	}
	if v := queryInt64Ptr(r, "min_copies"); v != nil {
		n := int(*v)
		filter.MinCopies = &n
	}
	if v := queryInt64Ptr(r, "max_copies"); v != nil {
		n := int(*v)
		filter.MaxCopies = &n
	}

	items, total, err := s.app.Catalog.ListItemsFiltered(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items, Total: total, Page: filter.Page})
}

func (s *Server) handleItemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.Catalog.ItemStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type itemDetail struct {
	*catalog.MediaItem
	Files []*catalog.File `json:"files"`
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}
	item, err := s.app.Catalog.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	files, err := s.app.Catalog.ItemFiles(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemDetail{MediaItem: item, Files: files})
}

type mergeItemsRequest struct {
	TargetID  int64   `json:"target_id"`
	SourceIDs []int64 `json:"source_ids"`
}

func (s *Server) handleMergeItems(w http.ResponseWriter, r *http.Request) {
	var req mergeItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.app.Matcher.Merge(r.Context(), req.TargetID, req.SourceIDs); err != nil {
		writeError(w, err)
		return
	}
	item, err := s.app.Catalog.GetItem(r.Context(), req.TargetID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type splitItemRequest struct {
	FileID int64 `json:"file_id"`
}

func (s *Server) handleSplitItem(w http.ResponseWriter, r *http.Request) {
	var req splitItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.app.Matcher.Split(r.Context(), req.FileID); err != nil {
		writeError(w, err)
		return
	}
	item, err := s.app.Catalog.ItemForFile(r.Context(), req.FileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleProcessUnlinked(w http.ResponseWriter, r *http.Request) {
	n, err := s.app.Matcher.ProcessUnlinked(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"linked": n})
}

type patchItemRequest struct {
	Status *string `json:"status"`
}

func (s *Server) handlePatchItem(w http.ResponseWriter, r *http.Request) {
	if !s.app.Config.WriteMode {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "write_mode is disabled"})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}
	var req patchItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status != nil {
		if err := s.app.Catalog.SetItemStatus(r.Context(), id, catalog.ItemStatus(*req.Status)); err != nil {
			writeError(w, err)
			return
		}
	}
	item, err := s.app.Catalog.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
