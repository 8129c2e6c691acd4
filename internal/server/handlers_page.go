package server

import (
	"net/http"

	"tailscale-webui/internal/config"
	"tailscale-webui/internal/version"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := map[string]any{
		"Version":       version.Current(),
		"AccessChoices": config.AccessChoices,
		"FirewallModes": []string{config.FirewallNftables, config.FirewallIptables},
	}
	if err := s.templates.ExecuteTemplate(w, "layout.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Current())
}
