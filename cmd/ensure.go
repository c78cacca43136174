package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/tui"
)

var ensureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Provision, rename and bootstrap the project's dev environment as needed",
	Args:  cobra.NoArgs,
	RunE:  runEnsure,
}

var (
	ensureDistro      string
	ensureMachineName string
	ensureUser        string
	ensureProvider    string
	ensurePort        int
	ensureWorkdir     string
	ensureInteractive bool
)

func init() {
	ensureCmd.Flags().StringVar(&ensureDistro, "distro", "", "Container image to provision from")
	ensureCmd.Flags().StringVar(&ensureMachineName, "machine-name", "", "Explicit container name")
	ensureCmd.Flags().StringVar(&ensureUser, "user", "", "User for commands run in the environment")
	ensureCmd.Flags().StringVar(&ensureProvider, "provider", "", "Provider to use (docker or auto)")
	ensureCmd.Flags().IntVar(&ensurePort, "port", 0, "Internal port the project serves on")
	ensureCmd.Flags().StringVar(&ensureWorkdir, "workdir", "", "Reconcile for a different working tree")
	ensureCmd.Flags().BoolVarP(&ensureInteractive, "interactive", "i", false, "Edit overrides in a form before ensuring")
	rootCmd.AddCommand(ensureCmd)
}

// ensureOverrides builds the per-call overrides from flags.
func ensureOverrides() *config.Config {
	return &config.Config{
		Provider:     devenv.ProviderKind(ensureProvider),
		Distro:       ensureDistro,
		MachineName:  ensureMachineName,
		User:         ensureUser,
		InternalPort: ensurePort,
	}
}

func runEnsure(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := currentApp(cmd)
	mgr := manager(cmd)
	overrides := ensureOverrides()

	if ensureInteractive {
		current, err := a.Config.Load(worktree)
		if err != nil {
			return err
		}
		edited, err := tui.RunOverrides(config.Merge(current, overrides))
		if err != nil {
			return fmt.Errorf("overrides form error: %w", err)
		}
		if edited == nil {
			logInfo("Canceled")
			return nil
		}
		edited.Provider = overrides.Provider
		overrides = edited
	}

	logging.Debug("ensuring dev environment", "projectId", projectID, "worktree", worktree)

	var (
		rec *devenv.Record
		err error
	)
	if ensureWorkdir != "" {
		rec, err = mgr.EnsureForWorkdir(ctx, ensureWorkdir, overrides)
	} else {
		rec, err = mgr.Ensure(ctx, overrides)
	}
	if err != nil {
		return err
	}

	logSuccess("Dev environment %s is ready", rec.ID)
	printRecordSummary(cmd.OutOrStdout(), rec)
	return nil
}

func printRecordSummary(w io.Writer, rec *devenv.Record) {
	fmt.Fprintf(w, "  Container: %s\n", rec.ID)
	fmt.Fprintf(w, "  Project: %s\n", rec.ProjectID)
	fmt.Fprintf(w, "  Status: %s\n", rec.Status)
	if rec.IP != "" {
		fmt.Fprintf(w, "  IP: %s\n", rec.IP)
	}
	if rec.Distro != "" {
		fmt.Fprintf(w, "  Distro: %s\n", rec.Distro)
	}
}
