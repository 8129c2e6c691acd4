package server

import (
	"errors"
	"net/http"
	"strings"

	"tailscale-webui/internal/auth"
)

func (s *Server) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && s.auth.ValidateToken(cookie.Value) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderLogin(w, http.StatusOK, "")
}

func (s *Server) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !s.auth.CheckPassword(r.FormValue("password")) {
		s.renderLogin(w, http.StatusUnauthorized, "Invalid password. Please try again.")
		return
	}
	token, err := s.auth.GetToken()
	if err != nil || token == "" {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, auth.SessionCookie(token, s.secureCookies))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "login.html", map[string]any{"Error": message}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleSignout ends the panel session. It does not touch tailscale.
func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ExpiredCookie())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleGetAuthToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.auth.GetToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleRegenerateAuthToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.auth.RegenerateToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Keep the browser session alive after rotation.
	http.SetCookie(w, auth.SessionCookie(token, s.secureCookies))
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.CurrentPassword) == "" || strings.TrimSpace(payload.NewPassword) == "" {
		writeError(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}
	err := s.auth.ChangePassword(payload.CurrentPassword, payload.NewPassword)
	switch {
	case errors.Is(err, auth.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
