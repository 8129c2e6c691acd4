package server

import (
	"errors"
	"fmt"
	"net/http"

	"tailscale-webui/internal/config"
	"tailscale-webui/internal/service"
)

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	rec, err := s.config.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"config": rec,
		"choices": map[string]any{
			"access": config.AccessChoices,
			"fwMode": []string{config.FirewallNftables, config.FirewallIptables},
		},
	})
}

// handleSaveConfig writes the record and, unless apply=0, brings the
// service in line with the enabled flag.
func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var rec config.Record
	if !decodeJSON(w, r, &rec) {
		return
	}
	apply := true
	if v, ok := queryBool(r, "apply"); ok {
		apply = v
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	saved, err := s.config.Save(r.Context(), rec)
	if err != nil {
		if errors.Is(err, config.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.diagLog.Infof("saved tailscale configuration (enabled=%t)", saved.Enabled)

	if !apply {
		s.recordAction(r.Context(), "save", "", nil)
		writeJSON(w, http.StatusOK, map[string]any{"config": saved, "applied": false})
		return
	}
	applyErr := service.Apply(r.Context(), s.services, s.serviceName, saved.Enabled)
	s.recordAction(r.Context(), "apply", fmt.Sprintf("enabled=%t", saved.Enabled), applyErr)
	if applyErr != nil {
		s.diagLog.Errorf("apply service state: %v", applyErr)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"config":  saved,
			"applied": false,
			"error":   "configuration saved but service apply failed: " + applyErr.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": saved, "applied": true})
}
