package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

// DockerProvider implements Provider using the Docker or Podman CLI.
type DockerProvider struct {
	// Command is the container command to use (docker or podman)
	Command string

	// Home is the host user's home directory; it selects the shared mount.
	Home string

	// Exec runs CLI commands.
	Exec system.CommandExecutor

	// Pinger, when set, is tried before "<cli> info" to check the daemon.
	Pinger Pinger
}

// NewDockerProvider creates a provider speaking to command through exec.
func NewDockerProvider(command, home string, exec system.CommandExecutor) *DockerProvider {
	if command == "" {
		command = "docker"
	}
	if exec == nil {
		exec = system.DefaultExecutor()
	}
	return &DockerProvider{
		Command: command,
		Home:    home,
		Exec:    exec,
	}
}

// Kind returns the provider identifier
func (p *DockerProvider) Kind() devenv.ProviderKind {
	return devenv.ProviderDocker
}

// run executes a CLI command. Only a failure to start the command is an
// error; exit status is left to the caller.
func (p *DockerProvider) run(ctx context.Context, args ...string) (*system.Result, error) {
	result, err := p.Exec.Run(ctx, p.Command, args...)
	if err != nil {
		return nil, errors.ContainerFailed(fmt.Sprintf("%s %s failed", p.Command, args[0]), err)
	}
	return result, nil
}

// Available reports whether the engine answers.
func (p *DockerProvider) Available(ctx context.Context) bool {
	if p.Pinger != nil {
		err := p.Pinger.Ping(ctx)
		if err == nil {
			return true
		}
		logging.Debug("engine ping failed, trying cli", "runtime", p.Command, "error", err)
	}
	result, err := p.Exec.Run(ctx, p.Command, "info")
	return err == nil && result.Success()
}

// Info inspects a container.
func (p *DockerProvider) Info(ctx context.Context, name string) (*Info, error) {
	result, err := p.run(ctx, "inspect", name)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, nil
	}
	info, err := parseInspect(result.Stdout)
	if err != nil {
		return nil, errors.ContainerFailed(fmt.Sprintf("cannot read state of container '%s'", name), err)
	}
	return info, nil
}

// Create creates and starts a container, or starts an existing one.
func (p *DockerProvider) Create(ctx context.Context, input CreateInput) (*Info, error) {
	existing, err := p.Info(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status != devenv.StatusRunning {
			logging.Debug("starting existing container", "container", input.Name, "status", existing.Status)
			if _, err := p.run(ctx, "start", input.Name); err != nil {
				return nil, err
			}
			updated, err := p.Info(ctx, input.Name)
			if err != nil {
				return nil, err
			}
			if updated != nil {
				return updated, nil
			}
		}
		return existing, nil
	}

	if !p.Available(ctx) {
		return nil, errors.ProviderNotRunning(string(p.Kind()))
	}

	args := p.runArgs(input)
	logging.Debug("creating container", "container", input.Name, "runtime", p.Command, "image", input.Distro)

	result, err := p.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, errors.ProvisionFailed(
			fmt.Sprintf("Failed to create Docker container '%s'%s", input.Name, stderrSuffix(result)))
	}

	created, err := p.Info(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, errors.ProvisionFailed(fmt.Sprintf("Failed to create Docker container '%s'.", input.Name))
	}
	return created, nil
}

// runArgs builds the detached run command for a new container.
func (p *DockerProvider) runArgs(input CreateInput) []string {
	args := []string{
		"run", "-d",
		"--name", input.Name,
		"--hostname", input.Name,
	}
	args = append(args, ToDockerArgs(EnvironmentMounts(p.Home, input.TmpfsPaths))...)
	return append(args, input.Distro, "sleep", "infinity")
}

// Bootstrap verifies the toolchain and installs it when missing.
func (p *DockerProvider) Bootstrap(ctx context.Context, name string) error {
	verify, err := p.run(ctx, "exec", name, "bash", "-lc", verifyToolchain)
	if err != nil {
		return err
	}
	if verify.Success() {
		return nil
	}

	logging.Debug("toolchain missing, running full bootstrap", "container", name)
	result, err := p.run(ctx, "exec", "-u", "root", name, "bash", "-c", BootstrapScript())
	if err != nil {
		return err
	}
	if !result.Success() {
		return errors.ProvisionFailed(fmt.Sprintf("DevEnv bootstrap failed for '%s'%s", name, stderrSuffix(result)))
	}

	verify, err = p.run(ctx, "exec", name, "bash", "-lc", verifyToolchain)
	if err != nil {
		return err
	}
	if !verify.Success() {
		return errors.BootstrapFailed(name, "bun/node not found in PATH.")
	}
	return nil
}

// Rename renames a container.
func (p *DockerProvider) Rename(ctx context.Context, current, next string) error {
	if current == next {
		return nil
	}
	result, err := p.run(ctx, "rename", current, next)
	if err != nil {
		return err
	}
	if result.Success() {
		return nil
	}
	return errors.ContainerFailed(
		fmt.Sprintf("Failed to rename Docker container '%s' to '%s'%s", current, next, stderrSuffix(result)), nil)
}

// Destroy force-removes a container.
func (p *DockerProvider) Destroy(ctx context.Context, name string) error {
	logging.Debug("destroying container", "container", name)
	result, err := p.run(ctx, "rm", "-f", name)
	if err != nil {
		return err
	}
	if result.Success() {
		return nil
	}
	if isNoSuchContainer(string(result.Stderr)) {
		return nil
	}
	return errors.ContainerFailed(fmt.Sprintf("Failed to delete Docker container '%s'%s", name, stderrSuffix(result)), nil)
}

// ResolveProxyTarget re-inspects the container for its current address.
func (p *DockerProvider) ResolveProxyTarget(ctx context.Context, record devenv.Record, port int) (ProxyTarget, error) {
	info, err := p.Info(ctx, record.ID)
	if err != nil {
		return ProxyTarget{}, err
	}
	if info == nil || info.IP == "" {
		return ProxyTarget{}, errors.NoProxyAddress(record.ID)
	}
	return ProxyTarget{Host: info.IP, Port: port}, nil
}

func stderrSuffix(result *system.Result) string {
	msg := strings.TrimSpace(string(result.Stderr))
	if msg == "" {
		return ""
	}
	return ": " + msg
}

// isNoSuchContainer matches both docker and podman wording.
func isNoSuchContainer(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "no such container")
}
