package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/identity"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/logging"
)

var (
	verbose     bool
	jsonOutput  bool
	projectID   string
	worktree    string
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "devenv-ctl",
	Short: "Per-project container dev environment manager",
	Long: `devenv-ctl keeps one container dev environment per host project.

Each environment is reconciled on demand:
  - Provisioned when missing
  - Renamed when the expected container name changes
  - Bootstrapped with the current toolchain revision
  - Recorded in a JSON state file with its routes`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, os.Stderr)

		a, ok := app.FromContext(cmd.Context())
		if !ok {
			var err error
			a, err = app.New()
			if err != nil {
				return err
			}
			cmd.SetContext(app.WithContext(cmd.Context(), a))
		}

		if worktree == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			worktree = identity.DetectWorktree(cmd.Context(), a.Executor, cwd)
		} else {
			worktree = identity.AbsWorktree(worktree)
		}
		logging.Debug("resolved invocation", "projectId", projectID, "worktree", worktree)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsFile == "" {
			return nil
		}
		return currentApp(cmd).Metrics.WriteTextfile(metricsFile)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&projectID, "project-id", "global", "Host project identifier")
	rootCmd.PersistentFlags().StringVar(&worktree, "worktree", "", "Working tree (default: git top-level of the current directory)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the command")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)
