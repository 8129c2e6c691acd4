package auth

import (
	"net/http"
	"strings"
)

// SessionCookieName holds the session token in the browser.
const SessionCookieName = "tswebui_session"

// Middleware enforces authentication on everything except the sign-in
// page, sign-out and static assets. Unauthenticated /api/ requests get a
// 401 JSON body; other requests are redirected to /login.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if isPublicPath(path) || m.isAuthenticated(r) {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

// SessionCookie returns the cookie that signs a browser in.
func SessionCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ExpiredCookie clears the session cookie.
func ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (m *Manager) isAuthenticated(r *http.Request) bool {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return m.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return m.ValidateToken(cookie.Value)
	}
	return false
}

func isPublicPath(path string) bool {
	return path == "/login" ||
		path == "/signout" ||
		strings.HasPrefix(path, "/static/")
}
