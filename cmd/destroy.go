package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/logging"
)

var destroyCmd = &cobra.Command{
	Use:     "destroy",
	Aliases: []string{"down"},
	Short:   "Remove a dev environment and its route",
	Args:    cobra.NoArgs,
	RunE:    runDestroy,
}

var destroyProject string

func init() {
	destroyCmd.Flags().StringVar(&destroyProject, "project", "", "Project id to destroy (default: the current project)")
	rootCmd.AddCommand(destroyCmd)
}

func runDestroy(cmd *cobra.Command, args []string) error {
	return destroyEnv(cmd, destroyProject)
}

// destroyEnv destroys the environment recorded under id and refreshes the
// rendered route files.
func destroyEnv(cmd *cobra.Command, id string) error {
	mgr := manager(cmd)
	if id == "" {
		id = mgr.ProjectInfo().ProjectID
	}
	logging.Debug("destroying dev environment", "projectId", id)

	rec, err := mgr.Destroy(cmd.Context(), id)
	if err != nil {
		return err
	}
	if rec == nil {
		logInfo("No dev environment recorded for %s", id)
		return nil
	}

	table, _, err := currentApp(cmd).Routes()
	if err != nil {
		return err
	}
	if err := table.Sync(); err != nil {
		logWarning("Failed to refresh route files: %v", err)
	}

	logSuccess("Removed dev environment %s", rec.ID)
	return nil
}
