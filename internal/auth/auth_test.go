package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"tailscale-webui/internal/settings"
)

func init() {
	// bcrypt.MinCost == 4; use minimum cost in tests for speed.
	bcryptCost = 4
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	sm := settings.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	return NewManager(sm)
}

func TestEnsureDefaults_CreatesHashAndToken(t *testing.T) {
	m := newTestManager(t)
	if err := m.EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	s, _ := m.settings.Get()
	if s.AuthPasswordHash == "" || s.AuthToken == "" {
		t.Fatalf("expected hash and token, got %+v", s)
	}

	if err := m.EnsureDefaults(); err != nil {
		t.Fatalf("second EnsureDefaults: %v", err)
	}
	s2, _ := m.settings.Get()
	if s.AuthPasswordHash != s2.AuthPasswordHash || s.AuthToken != s2.AuthToken {
		t.Fatalf("credentials changed on second call")
	}
}

func TestCheckPassword_DefaultPassword(t *testing.T) {
	m := newTestManager(t)
	if !m.CheckPassword("tailscale") {
		t.Error("default password should be accepted before hash is stored")
	}
	if m.CheckPassword("wrong") {
		t.Error("wrong password should be rejected")
	}
}

func TestChangePassword(t *testing.T) {
	m := newTestManager(t)
	if err := m.EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	if err := m.ChangePassword("nope", "newpass"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := m.ChangePassword(defaultPassword, ""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	if err := m.ChangePassword(defaultPassword, "newpass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if !m.CheckPassword("newpass") || m.CheckPassword(defaultPassword) {
		t.Fatalf("password not replaced")
	}
}

func TestRegenerateToken(t *testing.T) {
	m := newTestManager(t)
	if err := m.EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	old, _ := m.GetToken()
	newToken, err := m.RegenerateToken()
	if err != nil {
		t.Fatalf("RegenerateToken: %v", err)
	}
	if newToken == old || !m.ValidateToken(newToken) || m.ValidateToken(old) {
		t.Fatalf("token not rotated")
	}
	if m.ValidateToken("") {
		t.Fatalf("empty token must be invalid")
	}
}

func TestMiddleware(t *testing.T) {
	m := newTestManager(t)
	if err := m.EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	token, _ := m.GetToken()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		path   string
		setup  func(*http.Request)
		status int
	}{
		{"public login", "/login", nil, http.StatusNoContent},
		{"static", "/static/app.js", nil, http.StatusNoContent},
		{"api unauthenticated", "/api/status", nil, http.StatusUnauthorized},
		{"page unauthenticated", "/", nil, http.StatusSeeOther},
		{"bearer", "/api/status", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusNoContent},
		{"bad bearer", "/api/status", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"cookie", "/", func(r *http.Request) { r.AddCookie(SessionCookie(token, false)) }, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}
