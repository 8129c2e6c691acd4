package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tailscale-webui/internal/status"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether tailscale is running and logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			d := buildDeps(cfg, nil)
			snap := d.status.Query(cmd.Context())
			if asJSON {
				return writeJSONTo(cmd.OutOrStdout(), snap)
			}
			printStatus(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func printStatus(w io.Writer, snap status.Snapshot) {
	service, login := status.Labels(snap.Running, snap.Login)
	fmt.Fprintf(w, "%s %s\n", headingStyle.Render("Service:"), renderLabel(service))
	fmt.Fprintf(w, "%s %s\n", headingStyle.Render("Login:  "), renderLabel(login))
	if login.Link != "" {
		fmt.Fprintf(w, "         %s\n", faintStyle.Render(login.Link))
	}
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
