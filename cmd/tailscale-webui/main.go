// Command tailscale-webui serves the router panel for the tailscale daemon
// and offers the same status, log and logout actions on the command line.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tailscale-webui/internal/appconfig"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath   string
	listen       string
	dataDir      string
	backend      string
	tailscaleBin string
	pollInterval time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "tailscale-webui",
		Short:         "Web panel and CLI for the tailscale daemon on OpenWrt",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", appconfig.DefaultPath, "panel configuration file")
	flags.StringVar(&opts.listen, "listen", "", "HTTP listen address (overrides config)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory for settings, history and diagnostics (overrides config)")
	flags.StringVar(&opts.backend, "backend", "", "service manager backend: ubus or systemd (overrides config)")
	flags.StringVar(&opts.tailscaleBin, "tailscale-bin", "", "path to the tailscale CLI (overrides config)")
	flags.DurationVar(&opts.pollInterval, "poll", 0, "view poll interval (overrides config)")

	root.AddCommand(
		newServeCmd(opts),
		newStatusCmd(opts),
		newLogsCmd(opts),
		newLogoutCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file and applies flags the user set.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (appconfig.Config, error) {
	cfg, err := appconfig.Load(o.configPath)
	if err != nil {
		return appconfig.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = o.listen
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if flags.Changed("backend") {
		cfg.Backend = o.backend
	}
	if flags.Changed("tailscale-bin") {
		cfg.TailscaleBin = o.tailscaleBin
	}
	if flags.Changed("poll") {
		cfg.PollInterval = o.pollInterval
	}
	if err := cfg.Validate(); err != nil {
		return appconfig.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
