package cmd

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/errors"
)

var targetCmd = &cobra.Command{
	Use:   "target <port>",
	Short: "Print the current address of a port inside the dev environment",
	Args:  cobra.ExactArgs(1),
	RunE:  runTarget,
}

func init() {
	rootCmd.AddCommand(targetCmd)
}

func runTarget(cmd *cobra.Command, args []string) error {
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}

	rec, err := loadRecord(cmd)
	if err != nil {
		return err
	}
	target, err := manager(cmd).ResolveProxyTarget(cmd.Context(), *rec, port)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), net.JoinHostPort(target.Host, strconv.Itoa(target.Port)))
	return nil
}

func parsePort(raw string) (int, error) {
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return 0, errors.ValidationError(fmt.Sprintf("invalid port %q: must be between 1 and 65535", raw))
	}
	return port, nil
}
