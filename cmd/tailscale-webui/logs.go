package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tailscale-webui/internal/logview"
)

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var (
		reverse bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tailscale entries from the system log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			entries, err := buildDeps(cfg, nil).logs.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if entries == nil {
					entries = []logview.Entry{}
				}
				return writeJSONTo(cmd.OutOrStdout(), entries)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), logview.Text(entries, reverse))
			return err
		},
	}
	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "newest entries first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}
