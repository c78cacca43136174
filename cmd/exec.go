package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/runtime"
)

var execCmd = &cobra.Command{
	Use:   "exec -- <command> [args...]",
	Short: "Execute a command in the project's dev environment",
	Long: `Ensures the project's dev environment, then replaces this process with
an interactive exec of the command inside it. Without a command, a login
shell is opened.`,
	RunE: runExec,
}

var (
	execEnv     map[string]string
	execWorkdir string
	execUser    string
	execShell   bool
)

func init() {
	execCmd.Flags().StringToStringVarP(&execEnv, "env", "e", nil, "Environment variables (KEY=VALUE)")
	execCmd.Flags().StringVarP(&execWorkdir, "workdir", "w", "", "Working directory inside the container (default: the worktree)")
	execCmd.Flags().StringVarP(&execUser, "user", "u", "", "User to run as (default: the configured user)")
	execCmd.Flags().BoolVar(&execShell, "shell", false, "Keep a login shell open after the command exits")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	if dash := cmd.ArgsLenAtDash(); dash > 0 {
		return errors.ValidationError("usage: devenv-ctl exec [flags] -- <command> [args...]")
	}

	a := currentApp(cmd)
	rec, err := manager(cmd).Ensure(cmd.Context(), nil)
	if err != nil {
		return err
	}

	cfg, err := a.Config.Load(worktree)
	if err != nil {
		return err
	}

	input := runtime.ExecInput{
		Container: rec.ID,
		Workdir:   execWorkdir,
		User:      execUser,
		Env:       execEnv,
		Shell:     execShell,
	}
	if input.Workdir == "" {
		input.Workdir = rec.Worktree
	}
	if input.User == "" {
		input.User = cfg.User
	}
	if len(args) > 0 {
		input.Command = args[0]
		input.Args = args[1:]
	}

	line := runtime.BuildExecCommand(a.CLI, input)
	logging.Debug("exec in dev environment", "container", rec.ID, "command", line.String())
	return a.Executor.ReplaceProcess(line.Name, line.Args...)
}
