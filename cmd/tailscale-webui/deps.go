package main

import (
	"tailscale-webui/internal/appconfig"
	"tailscale-webui/internal/config"
	"tailscale-webui/internal/diaglog"
	"tailscale-webui/internal/logview"
	"tailscale-webui/internal/runner"
	"tailscale-webui/internal/service"
	"tailscale-webui/internal/status"
	"tailscale-webui/internal/systemd"
	"tailscale-webui/internal/tailscale"
	"tailscale-webui/internal/uci"
)

// deps holds the collaborators every command builds from the config.
type deps struct {
	cfg       appconfig.Config
	diag      *diaglog.Manager
	runner    runner.Runner
	config    *config.Manager
	services  service.Querier
	control   service.Controller
	tailscale *tailscale.Client
	status    *status.Querier
	logs      *logview.Fetcher
}

func buildDeps(cfg appconfig.Config, diag *diaglog.Manager) deps {
	r := runner.New(func(argv []string, res runner.Result, err error) {
		diag.Command(argv, res.Code, err)
	})
	d := deps{
		cfg:       cfg,
		diag:      diag,
		runner:    r,
		config:    config.NewManager(uci.NewCLIStore(cfg.UCIBin, r), cfg.UCIPackage, cfg.UCISection),
		tailscale: tailscale.NewClient(cfg.TailscaleBin, r),
		logs:      logview.NewFetcher(cfg.LogreadBin, cfg.LogTag, r),
	}
	switch cfg.Backend {
	case appconfig.BackendSystemd:
		m := systemd.NewManager(r)
		d.services, d.control = m, m
	default:
		d.services = service.NewUbusQuerier(cfg.UbusBin, r)
		d.control = service.NewInitdController(cfg.InitDir, r)
	}
	d.status = status.NewQuerier(d.services, d.tailscale, cfg.Service, cfg.Instance, diag)
	return d
}
