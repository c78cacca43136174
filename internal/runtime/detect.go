package runtime

import (
	"fmt"
	"os/exec"
	goruntime "runtime"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

// CLIType identifies which container CLI to drive
type CLIType string

const (
	CLIDocker CLIType = "docker"
	CLIPodman CLIType = "podman"
	CLIAuto   CLIType = "auto"
)

// Config holds runtime configuration
type Config struct {
	// CLI specifies which CLI to use (or "auto" for auto-detection)
	CLI CLIType

	// Home is the host user's home directory
	Home string

	// Executor runs CLI commands; defaults to the OS executor
	Executor system.CommandExecutor

	// EngineHost overrides DOCKER_HOST for the engine ping
	EngineHost string

	// DisablePing skips the engine API probe and relies on "<cli> info"
	DisablePing bool
}

// DefaultConfig returns the default runtime configuration
func DefaultConfig() *Config {
	return &Config{
		CLI: CLIAuto,
	}
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// DetectCLI determines which container CLI is installed.
// Docker is preferred; Podman is accepted as a drop-in replacement.
func DetectCLI() (CLIType, error) {
	logging.Debug("detecting container cli", "os", goruntime.GOOS)

	for _, candidate := range []CLIType{CLIDocker, CLIPodman} {
		if _, err := lookPath(string(candidate)); err == nil {
			logging.Debug("detected container cli", "cli", candidate)
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no supported container cli found (tried: docker, podman)")
}

// New creates the docker provider described by cfg.
// When no CLI can be detected the provider still targets "docker", so the
// failure surfaces as an unavailable provider at first use.
func New(cfg *Config) (*DockerProvider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	cli := cfg.CLI
	switch cli {
	case CLIAuto, "":
		detected, err := DetectCLI()
		if err != nil {
			logging.Debug("container cli detection failed", "error", err)
			detected = CLIDocker
		}
		cli = detected
	case CLIDocker, CLIPodman:
	default:
		return nil, fmt.Errorf("unknown container cli: %s", cli)
	}

	logging.Debug("creating provider", "cli", cli)
	provider := NewDockerProvider(string(cli), cfg.Home, cfg.Executor)
	if !cfg.DisablePing {
		provider.Pinger = &EnginePinger{Host: cfg.EngineHost}
	}
	return provider, nil
}
