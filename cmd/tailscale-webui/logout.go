package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errConfirmationRequired = errors.New("stdin is not a terminal; pass --yes to log out")

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out of tailscale and unbind this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), term.IsTerminal(int(os.Stdin.Fd())), yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := buildDeps(cfg, nil).tailscale.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks before an irreversible logout. Without a terminal the
// caller must have passed --yes.
func confirm(in io.Reader, out io.Writer, interactive, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !interactive {
		return false, errConfirmationRequired
	}
	fmt.Fprint(out, "Log out of tailscale and unbind this device? [y/N] ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
