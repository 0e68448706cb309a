package api

import (
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/milestonehq/milestone/internal/catalog"
)

type filesResponse struct {
	Files []*catalog.File `json:"files"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	filter := catalog.FileFilter{
		RootID:       queryInt64Ptr(r, "root_id"),
		Ext:          r.URL.Query().Get("ext"),
		MinSize:      queryInt64Ptr(r, "min_size"),
		MaxSize:      queryInt64Ptr(r, "max_size"),
		PathContains: r.URL.Query().Get("path_contains"),
		Missing:      queryBoolPtr(r, "missing"),
		Page:         queryInt(r, "page", 1),
		PageSize:     queryInt(r, "page_size", 50),
	}

	files, total, err := s.app.Catalog.ListFilesFiltered(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filesResponse{Files: files, Total: total, Page: filter.Page})
}

func (s *Server) handleFileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.Catalog.FileStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleOpenExplorer and handleOpenFolder shell out to the host's file
// manager to reveal a tracked file or its parent directory. Both are
// best-effort: a desktop environment may not be present on a headless
// server, in which case the OS command itself fails and is reported.
func (s *Server) handleOpenExplorer(w http.ResponseWriter, r *http.Request) {
	s.openPath(w, r, false)
}

func (s *Server) handleOpenFolder(w http.ResponseWriter, r *http.Request) {
	s.openPath(w, r, true)
}

func (s *Server) openPath(w http.ResponseWriter, r *http.Request, folderOnly bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}
	f, err := s.app.Catalog.GetFile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	root, err := s.app.Catalog.GetRoot(r.Context(), f.RootID)
	if err != nil {
		writeError(w, err)
		return
	}

	target := filepath.Join(root.Path, f.Path)
	if folderOnly {
		target = filepath.Dir(target)
	}

	if err := revealPath(target); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"opened": target})
}

func revealPath(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", "-R", path).Start()
	case "windows":
		return exec.Command("explorer", "/select,", path).Start()
	default:
		return exec.Command("xdg-open", filepath.Dir(path)).Start()
	}
}
