package api

import (
	"net/http"
)

type registerDriveRequest struct {
	MountPath    string  `json:"mount_path"`
	VolumeSerial *string `json:"volume_serial"`
	VolumeLabel  *string `json:"volume_label"`
}

func (s *Server) handleRegisterDrive(w http.ResponseWriter, r *http.Request) {
	var req registerDriveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	drive, err := s.app.Catalog.RegisterDrive(r.Context(), req.MountPath, req.VolumeSerial, req.VolumeLabel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, drive)
}

func (s *Server) handleListDrives(w http.ResponseWriter, r *http.Request) {
	drives, err := s.app.Catalog.ListDrives(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drives)
}

func (s *Server) handleDeleteDrive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid drive id"})
		return
	}
	if err := s.app.Catalog.DeleteDrive(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
