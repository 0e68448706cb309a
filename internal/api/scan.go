package api

import (
	"net/http"

	"github.com/milestonehq/milestone/internal/scanner"
)

type scanStartRequest struct {
	DriveID  *int64 `json:"drive_id"`
	Throttle string `json:"throttle"`
}

func (s *Server) handleScanStart(w http.ResponseWriter, r *http.Request) {
	var req scanStartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	throttle := scanner.ThrottleNormal
	if req.Throttle != "" {
		throttle = scanner.Throttle(req.Throttle)
	}

	if !s.app.Scanner.Start(req.DriveID, throttle) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a scan is already running"})
		return
	}
	writeJSON(w, http.StatusAccepted, s.app.Scanner.Status())
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Scanner.Status())
}

type scanControlRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleScanControl(w http.ResponseWriter, r *http.Request) {
	var req scanControlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var ok bool
	switch req.Action {
	case "pause":
		ok = s.app.Scanner.Pause()
	case "resume":
		ok = s.app.Scanner.Resume()
	case "cancel":
		ok = s.app.Scanner.Cancel()
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "action must be pause, resume, or cancel"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "scan is not in a state that allows " + req.Action})
		return
	}
	writeJSON(w, http.StatusOK, s.app.Scanner.Status())
}
