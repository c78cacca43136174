package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/identity"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show how the current invocation resolves to a project",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	a := currentApp(cmd)
	pc := manager(cmd).ProjectInfo()

	cfg, err := a.Config.Load(pc.Worktree)
	if err != nil {
		return err
	}
	name := cfg.MachineName
	if name == "" {
		name = identity.BuildMachineName(pc.ProjectName, pc.ProjectID)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Project ID: %s\n", pc.ProjectID)
	fmt.Fprintf(w, "Raw ID: %s\n", pc.RawID)
	fmt.Fprintf(w, "Project Name: %s\n", pc.ProjectName)
	fmt.Fprintf(w, "Worktree: %s\n", pc.Worktree)
	fmt.Fprintf(w, "Machine Name: %s\n", name)
	fmt.Fprintf(w, "Provider: %s\n", cfg.Provider)
	fmt.Fprintf(w, "Distro: %s\n", cfg.Distro)
	fmt.Fprintf(w, "Enabled: %t\n", cfg.IsEnabled())
	fmt.Fprintf(w, "State File: %s\n", a.Store.Path())
	return nil
}
