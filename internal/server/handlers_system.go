package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/stockpin/internal/common"
)

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": s.app.Config.Environment,
		"uptime":      time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion reports build metadata injected at link time.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]string{
			"version": common.GetVersion(),
			"build":   common.GetBuild(),
			"commit":  common.GetGitCommit(),
		},
	})
}
