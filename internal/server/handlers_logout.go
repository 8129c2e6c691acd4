package server

import (
	"net/http"
	"strings"
)

// handleLogoutChallenge issues the confirmation token a logout must carry.
func (s *Server) handleLogoutChallenge(w http.ResponseWriter, r *http.Request) {
	token, expires := s.challenges.issue()
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": expires.UTC(),
		"prompt":    "Log out of tailscale and unbind this device?",
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if !s.challenges.redeem(strings.TrimSpace(payload.Token)) {
		writeError(w, http.StatusForbidden, "logout confirmation is missing or expired")
		return
	}
	err := s.tailscale.Logout(r.Context())
	s.recordAction(r.Context(), "logout", "", err)
	if err != nil {
		s.diagLog.Errorf("tailscale logout: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.diagLog.Infof("tailscale logged out from panel")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
