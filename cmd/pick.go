package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/lifecycle"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactive dev environment picker",
	Long: `Opens an interactive TUI for selecting a recorded dev environment.

Use arrow keys or j/k to navigate, / to filter.

Actions:
  Enter  - Open a shell in the selected environment
  i      - Show status of the selected environment
  d      - Destroy the selected environment
  q/Esc  - Quit`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	logging.Debug("picker mode started")

	records, err := manager(cmd).List()
	if err != nil {
		return fmt.Errorf("failed to list dev environments: %w", err)
	}

	if len(records) == 0 {
		logInfo("No dev environments found. Create one with: devenv-ctl ensure")
		return nil
	}

	result, err := tui.RunPicker(records, lifecycle.BootstrapVersion)
	if err != nil {
		return fmt.Errorf("picker error: %w", err)
	}

	logging.Debug("picker result", "action", result.Action)
	return handlePick(cmd, result)
}

func handlePick(cmd *cobra.Command, result tui.PickerResult) error {
	if result.Record == nil {
		return nil
	}
	rec := *result.Record

	switch result.Action {
	case tui.ActionShell:
		return shellInto(cmd, rec)
	case tui.ActionStatus:
		printStatus(cmd.OutOrStdout(), rec, time.Now())
	case tui.ActionDestroy:
		return destroyEnv(cmd, rec.ProjectID)
	}
	return nil
}

// shellInto replaces the process with an interactive shell in rec.
func shellInto(cmd *cobra.Command, rec devenv.Record) error {
	if rec.Status != devenv.StatusRunning {
		return fmt.Errorf("dev environment %s is %s. Start it with: devenv-ctl ensure --project-id %s",
			rec.ID, rec.Status, rec.ProjectID)
	}
	a := currentApp(cmd)
	line := runtime.BuildExecCommand(a.CLI, runtime.ExecInput{
		Container: rec.ID,
		Workdir:   rec.Worktree,
	})
	logging.Debug("attaching to dev environment", "container", rec.ID, "command", line.String())
	return a.Executor.ReplaceProcess(line.Name, line.Args...)
}
