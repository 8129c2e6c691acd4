// Package server exposes the panel over HTTP: the page, a JSON API and
// per-view server-sent event streams.
package server

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tailscale-webui/internal/auth"
	"tailscale-webui/internal/config"
	"tailscale-webui/internal/diaglog"
	"tailscale-webui/internal/history"
	"tailscale-webui/internal/logview"
	"tailscale-webui/internal/service"
	"tailscale-webui/internal/settings"
	"tailscale-webui/internal/status"
	"tailscale-webui/ui"
)

// StatusQuerier takes status snapshots.
type StatusQuerier interface {
	Query(ctx context.Context) status.Snapshot
}

// LogFetcher reads the daemon's log entries.
type LogFetcher interface {
	Fetch(ctx context.Context) ([]logview.Entry, error)
}

// Tailscale runs the interactive CLI actions.
type Tailscale interface {
	Login() error
	Logout(ctx context.Context) error
}

// Options wires the server's collaborators. History and Diag may be nil.
type Options struct {
	Config      *config.Manager
	Status      StatusQuerier
	Logs        LogFetcher
	Tailscale   Tailscale
	Services    service.Controller
	ServiceName string
	History     *history.Store
	Settings    *settings.Manager
	Auth        *auth.Manager
	Diag        *diaglog.Manager

	// PollInterval drives each streamed view.
	PollInterval time.Duration
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
	// RestartSelf, when set, restarts the panel after the listen
	// interface changes.
	RestartSelf func() error
}

// Server handles HTTP requests.
type Server struct {
	config      *config.Manager
	status      StatusQuerier
	logs        LogFetcher
	tailscale   Tailscale
	services    service.Controller
	serviceName string
	history     *history.Store
	settings    *settings.Manager
	auth        *auth.Manager
	diagLog     *diaglog.Manager
	templates   *template.Template

	pollInterval  time.Duration
	secureCookies bool
	restartSelf   func() error

	views      *viewRegistry
	challenges *challengeStore

	applyMu sync.Mutex
}

// New creates an HTTP server.
func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Status == nil || opts.Logs == nil || opts.Tailscale == nil {
		return nil, errors.New("config, status, logs and tailscale are required")
	}
	if opts.Services == nil || opts.Settings == nil || opts.Auth == nil {
		return nil, errors.New("services, settings and auth are required")
	}
	tmpl, err := template.ParseFS(ui.Assets, "web/templates/*.html")
	if err != nil {
		return nil, err
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Server{
		config:        opts.Config,
		status:        opts.Status,
		logs:          opts.Logs,
		tailscale:     opts.Tailscale,
		services:      opts.Services,
		serviceName:   opts.ServiceName,
		history:       opts.History,
		settings:      opts.Settings,
		auth:          opts.Auth,
		diagLog:       opts.Diag,
		templates:     tmpl,
		pollInterval:  interval,
		secureCookies: opts.SecureCookies,
		restartSelf:   opts.RestartSelf,
		views:         newViewRegistry(),
		challenges:    newChallengeStore(logoutChallengeTTL),
	}, nil
}

// Router constructs the http.Handler with all routes.
func (s *Server) Router() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.auth.Middleware)

	r.Get("/login", s.handleLoginGet)
	r.Post("/login", s.handleLoginPost)
	r.Post("/signout", s.handleSignout)
	r.Get("/", s.handleIndex)

	staticFS, err := fs.Sub(ui.Assets, "web/static")
	if err != nil {
		return nil, err
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Route("/api", func(api chi.Router) {
		api.Get("/status", s.handleStatus)
		api.Get("/status/stream", s.handleStatusStream)
		api.Get("/status/history", s.handleStatusHistory)
		api.Get("/actions", s.handleActions)

		api.Get("/logs", s.handleLogs)
		api.Get("/logs/stream", s.handleLogStream)
		api.Post("/logs/views/{id}/order", s.handleToggleLogOrder)

		api.Get("/config", s.handleGetConfig)
		api.Put("/config", s.handleSaveConfig)

		api.Post("/login", s.handleTriggerLogin)
		api.Post("/logout/challenge", s.handleLogoutChallenge)
		api.Post("/logout", s.handleLogout)

		api.Get("/settings", s.handleGetSettings)
		api.Put("/settings", s.handleSaveSettings)
		api.Get("/auth/token", s.handleGetAuthToken)
		api.Post("/auth/token", s.handleRegenerateAuthToken)
		api.Post("/auth/password", s.handleChangePassword)

		api.Get("/version", s.handleVersion)
	})

	return r, nil
}

// recordAction stores a panel action when history is enabled.
func (s *Server) recordAction(ctx context.Context, action, detail string, actionErr error) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordAction(ctx, action, detail, actionErr); err != nil {
		s.diagLog.Warnf("record action %s: %v", action, err)
	}
}
