package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/lifecycle"
)

// currentApp returns the App installed by the root command.
func currentApp(cmd *cobra.Command) *app.App {
	a, _ := app.FromContext(cmd.Context())
	return a
}

// manager returns the lifecycle manager for the invocation's project.
func manager(cmd *cobra.Command) *lifecycle.Manager {
	return currentApp(cmd).Manager(projectID, worktree)
}

// loadRecord reconciles the project's record against the provider and
// returns EnvNotFound when nothing is recorded.
func loadRecord(cmd *cobra.Command) (*devenv.Record, error) {
	mgr := manager(cmd)
	rec, err := mgr.Status(cmd.Context())
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.EnvNotFound(mgr.ProjectInfo().ProjectID)
	}
	return rec, nil
}
