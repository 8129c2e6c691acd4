package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tailscale-webui/internal/appconfig"
	"tailscale-webui/internal/auth"
	"tailscale-webui/internal/database"
	"tailscale-webui/internal/diaglog"
	"tailscale-webui/internal/history"
	"tailscale-webui/internal/server"
	"tailscale-webui/internal/settings"
	"tailscale-webui/internal/systemd"
	"tailscale-webui/internal/util"
	"tailscale-webui/internal/version"
)

const panelUnit = "tailscale-webui"

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg appconfig.Config) error {
	settingsManager := settings.NewManager(cfg.SettingsPath())
	storedSettings, err := settingsManager.Get()
	if err != nil {
		log.Printf("warning: failed to load settings: %v", err)
	}

	diag := diaglog.New(cfg.DiagLogPath())
	if err := diag.Configure(storedSettings.DebugEnabled(), storedSettings.DebugLogLevel); err != nil {
		log.Printf("warning: diagnostics logging disabled: %v", err)
	}
	defer diag.Close()

	authManager := auth.NewManager(settingsManager)
	if err := authManager.EnsureDefaults(); err != nil {
		return err
	}

	d := buildDeps(cfg, diag)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hist *history.Store
	if cfg.HistoryInterval > 0 {
		var db *sql.DB
		db, err = database.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer db.Close()
		if hist, err = history.NewStore(db); err != nil {
			return err
		}
		recorder := history.NewRecorder(hist, db, d.status, cfg.HistoryRetention, diag).Start(ctx, cfg.HistoryInterval)
		defer recorder.Stop()
	}

	var restartSelf func() error
	if cfg.Systemd {
		panel := systemd.NewManager(d.runner)
		restartSelf = func() error {
			return panel.Restart(context.Background(), panelUnit)
		}
	}

	srv, err := server.New(server.Options{
		Config:       d.config,
		Status:       d.status,
		Logs:         d.logs,
		Tailscale:    d.tailscale,
		Services:     d.control,
		ServiceName:  cfg.Service,
		History:      hist,
		Settings:     settingsManager,
		Auth:         authManager,
		Diag:         diag,
		PollInterval: cfg.PollInterval,
		RestartSelf:  restartSelf,
	})
	if err != nil {
		return err
	}
	router, err := srv.Router()
	if err != nil {
		return err
	}

	listenAddr, err := util.ResolveListenAddress(cfg.Listen, storedSettings.ListenInterface, util.InterfaceIPv4)
	if err != nil {
		log.Printf("warning: unable to resolve IP for interface %s: %v", storedSettings.ListenInterface, err)
	}
	if storedSettings.ListenInterface == "" {
		if infos, err := util.InterfacesWithAddrs(); err == nil {
			if name, ip := util.SelectLANInterface(infos); name != "" {
				log.Printf("hint: set the listen interface to %s (%s) to keep the panel off the WAN", name, ip)
			}
		}
	}

	httpServer := &http.Server{
		Addr:        listenAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Streams stay open, so no WriteTimeout.
		IdleTimeout: 60 * time.Second,
		// Request contexts end on shutdown so open streams return.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("%s listening on %s", version.Current(), listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	return nil
}
