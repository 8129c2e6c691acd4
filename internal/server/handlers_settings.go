package server

import (
	"log"
	"net/http"
	"time"

	"tailscale-webui/internal/util"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.settings.Get()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	interfaces, err := util.InterfacesWithAddrs()
	if err != nil {
		interfaces = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"settings":   current.Public(),
		"interfaces": interfaces,
	})
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	// Only the public, user-editable fields are decoded.
	var payload struct {
		ListenInterface string `json:"listenInterface"`
		DebugLogEnabled *bool  `json:"debugLogEnabled"`
		DebugLogLevel   string `json:"debugLogLevel"`
		ReverseLogs     *bool  `json:"reverseLogs"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	current, err := s.settings.Get()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	updated := current
	updated.ListenInterface = payload.ListenInterface
	if payload.DebugLogEnabled != nil {
		updated.DebugLogEnabled = payload.DebugLogEnabled
	}
	if payload.DebugLogLevel != "" {
		updated.DebugLogLevel = payload.DebugLogLevel
	}
	if payload.ReverseLogs != nil {
		updated.ReverseLogs = *payload.ReverseLogs
	}
	updated, err = updated.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if updated.ListenInterface != "" {
		if _, err := util.InterfaceIPv4(updated.ListenInterface); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.settings.Save(updated); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.diagLog.Configure(updated.DebugEnabled(), updated.DebugLogLevel); err != nil {
		log.Printf("diagnostics logging configure warning: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "settings": updated.Public()})

	if s.restartSelf != nil && current.ListenInterface != updated.ListenInterface {
		s.scheduleRestart()
	}
}

// scheduleRestart restarts the panel so a new listen address takes effect.
func (s *Server) scheduleRestart() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := s.restartSelf(); err != nil {
			log.Printf("panel restart failed: %v", err)
			return
		}
		log.Printf("requested panel restart after settings update")
	}()
}
