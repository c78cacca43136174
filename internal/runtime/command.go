package runtime

import (
	"sort"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

// shells are run directly rather than wrapped in a login shell.
var shells = map[string]bool{
	"bash": true, "zsh": true, "sh": true, "fish": true,
	"tcsh": true, "csh": true, "ksh": true, "dash": true,
}

// ExecInput describes a command to run inside an environment.
type ExecInput struct {
	Container string
	Command   string
	Args      []string
	Workdir   string
	User      string
	Env       map[string]string
	// Shell keeps an interactive login shell open after the command exits.
	Shell bool
}

// ExecCommand is a host command line ready to be executed.
type ExecCommand struct {
	Name string
	Args []string
}

// String renders the command line quoted for a POSIX shell.
func (c ExecCommand) String() string {
	return shellquote.Join(append([]string{c.Name}, c.Args...)...)
}

// BuildExecCommand builds an interactive `exec` invocation for cli.
func BuildExecCommand(cli string, input ExecInput) ExecCommand {
	if cli == "" {
		cli = "docker"
	}
	args := []string{"exec", "-it"}
	if input.Workdir != "" {
		args = append(args, "-w", input.Workdir)
	}
	if input.User != "" {
		args = append(args, "-u", input.User)
	}
	args = append(args, input.Container)

	command := input.Command
	if command == "" {
		command = "bash"
	}
	display := shellquote.Join(append([]string{command}, input.Args...)...)
	prefix := envPrefix(input.Env)

	switch {
	case input.Shell && !shells[command]:
		args = append(args, "bash", "-lc", prefix+display+"; exec bash -l")
	case prefix != "":
		args = append(args, "bash", "-lc", prefix+display)
	default:
		args = append(args, command)
		args = append(args, input.Args...)
	}
	return ExecCommand{Name: cli, Args: args}
}

// envPrefix renders env as "env K=V ... " with keys sorted.
func envPrefix(env map[string]string) string {
	if len(env) == 0 {
		return ""
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("env ")
	for _, k := range keys {
		b.WriteString(shellquote.Join(k + "=" + env[k]))
		b.WriteByte(' ')
	}
	return b.String()
}
