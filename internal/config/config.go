package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/tidwall/jsonc"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	deverrors "github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

const (
	DefaultProvider   = devenv.ProviderDocker
	DefaultDistro     = "mandarin3d/opencode-devenv:latest"
	DefaultDomain     = "localhost"
	DefaultEntrypoint = 80
	DefaultTraefik    = "traefik"

	// ProjectConfigDir is the per-tree directory holding project settings.
	ProjectConfigDir = ".opencode"

	configBaseName = "devenv"
)

// machineNameRegex validates explicit container names.
// Names must start with a lowercase letter or digit and be at most 63 characters.
var machineNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,62}$`)

// ValidateMachineName checks if an explicit container name is valid.
func ValidateMachineName(name string) error {
	if name == "" {
		return fmt.Errorf("machine name cannot be empty")
	}
	if !machineNameRegex.MatchString(name) {
		return fmt.Errorf("invalid machine name %q: must start with a lowercase letter or digit, contain only lowercase letters, digits, dots, underscores, or hyphens, and be at most 63 characters", name)
	}
	return nil
}

// Config is a project configuration overlay. Zero values mean "unset".
type Config struct {
	Enabled      *bool               `json:"enabled,omitempty" toml:"enabled"`
	Provider     devenv.ProviderKind `json:"provider,omitempty" toml:"provider"`
	Distro       string              `json:"distro,omitempty" toml:"distro"`
	MachineName  string              `json:"machineName,omitempty" toml:"machineName"`
	User         string              `json:"user,omitempty" toml:"user"`
	Domain       string              `json:"domain,omitempty" toml:"domain"`
	InternalPort int                 `json:"internalPort,omitempty" toml:"internalPort"`
}

// IsEnabled reports whether environments are enabled; unset means enabled.
func (c *Config) IsEnabled() bool {
	return c == nil || c.Enabled == nil || *c.Enabled
}

// Validate checks field values that would otherwise fail deep in a provider call.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.MachineName != "" {
		if err := ValidateMachineName(c.MachineName); err != nil {
			return err
		}
	}
	if c.InternalPort < 0 || c.InternalPort > 65535 {
		return fmt.Errorf("internalPort must be 0 (unset) or between 1 and 65535 (got %d)", c.InternalPort)
	}
	return nil
}

// ProxyConfig configures the local reverse proxy.
type ProxyConfig struct {
	Enabled       *bool  `json:"enabled,omitempty" toml:"enabled"`
	Entrypoint    int    `json:"entrypoint,omitempty" toml:"entrypoint"`
	TraefikBinary string `json:"traefikBinary,omitempty" toml:"traefikBinary"`
}

// ResolvedProxy is ProxyConfig with defaults applied.
type ResolvedProxy struct {
	Enabled       bool
	Entrypoint    int
	TraefikBinary string
}

// GlobalConfig holds user-wide defaults.
type GlobalConfig struct {
	DefaultProvider devenv.ProviderKind `json:"defaultProvider,omitempty" toml:"defaultProvider"`
	DefaultDistro   string              `json:"defaultDistro,omitempty" toml:"defaultDistro"`
	Domain          string              `json:"domain,omitempty" toml:"domain"`
	Proxy           *ProxyConfig        `json:"proxy,omitempty" toml:"proxy"`
}

// DomainSuffix returns the configured domain or DefaultDomain.
func (g *GlobalConfig) DomainSuffix() string {
	if g == nil || g.Domain == "" {
		return DefaultDomain
	}
	return g.Domain
}

// ResolveProxy applies defaults to the proxy settings.
func (g *GlobalConfig) ResolveProxy() ResolvedProxy {
	resolved := ResolvedProxy{
		Enabled:       true,
		Entrypoint:    DefaultEntrypoint,
		TraefikBinary: DefaultTraefik,
	}
	if g == nil || g.Proxy == nil {
		return resolved
	}
	if g.Proxy.Enabled != nil {
		resolved.Enabled = *g.Proxy.Enabled
	}
	if g.Proxy.Entrypoint > 0 {
		resolved.Entrypoint = g.Proxy.Entrypoint
	}
	if g.Proxy.TraefikBinary != "" {
		resolved.TraefikBinary = g.Proxy.TraefikBinary
	}
	return resolved
}

// Merge overlays override onto base field by field. Neither input is modified.
func Merge(base, override *Config) *Config {
	merged := &Config{}
	if base != nil {
		*merged = *base
	}
	if override == nil {
		return merged
	}
	if override.Enabled != nil {
		enabled := *override.Enabled
		merged.Enabled = &enabled
	}
	if override.Provider != "" {
		merged.Provider = override.Provider
	}
	if override.Distro != "" {
		merged.Distro = override.Distro
	}
	if override.MachineName != "" {
		merged.MachineName = override.MachineName
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Domain != "" {
		merged.Domain = override.Domain
	}
	if override.InternalPort != 0 {
		merged.InternalPort = override.InternalPort
	}
	return merged
}

// Paths holds the configured paths
type Paths struct {
	Home        string
	ConfigDir   string
	StateFile   string
	GatewayRoot string
	EventsDir   string
}

// PathsFor derives all paths from a home directory.
func PathsFor(home string) *Paths {
	configDir := filepath.Join(home, ".config", "opencode")
	gateway := filepath.Join(configDir, "devenv")
	return &Paths{
		Home:        home,
		ConfigDir:   configDir,
		StateFile:   filepath.Join(configDir, "devenv-state.json"),
		GatewayRoot: gateway,
		EventsDir:   filepath.Join(gateway, "events"),
	}
}

// DefaultPaths derives paths from $HOME.
func DefaultPaths() (*Paths, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return nil, deverrors.ConfigError("HOME is not set; cannot locate devenv state", nil)
	}
	return PathsFor(home), nil
}

// Loader reads global and project configuration files.
type Loader struct {
	paths *Paths
	fs    system.FileSystem
}

// NewLoader creates a Loader reading through fsys.
func NewLoader(paths *Paths, fsys system.FileSystem) *Loader {
	if fsys == nil {
		fsys = system.DefaultFS()
	}
	return &Loader{paths: paths, fs: fsys}
}

// Global loads the user-wide configuration.
func (l *Loader) Global() (*GlobalConfig, error) {
	var global GlobalConfig
	if err := l.readOverlay(l.paths.ConfigDir, &global); err != nil {
		return nil, err
	}
	return &global, nil
}

// Project loads the project overlay from a working tree. An empty tree has
// no project configuration.
func (l *Loader) Project(worktree string) (*Config, error) {
	var project Config
	if worktree == "" {
		return &project, nil
	}
	dir, err := securejoin.SecureJoin(worktree, ProjectConfigDir)
	if err != nil {
		return nil, deverrors.ConfigError(fmt.Sprintf("invalid project config path under %s", worktree), err)
	}
	if err := l.readOverlay(dir, &project); err != nil {
		return nil, err
	}
	if err := project.Validate(); err != nil {
		return nil, deverrors.ConfigError(fmt.Sprintf("invalid project config in %s", dir), err)
	}
	return &project, nil
}

// Load resolves the effective configuration for a working tree.
// Provider, Distro and Enabled are always set on the result.
func (l *Loader) Load(worktree string) (*Config, error) {
	global, err := l.Global()
	if err != nil {
		return nil, err
	}
	project, err := l.Project(worktree)
	if err != nil {
		return nil, err
	}

	enabled := project.IsEnabled()
	resolved := *project
	resolved.Enabled = &enabled

	if resolved.Provider == "" {
		resolved.Provider = global.DefaultProvider
	}
	if resolved.Provider == "" {
		resolved.Provider = DefaultProvider
	}
	if resolved.Distro == "" {
		resolved.Distro = global.DefaultDistro
	}
	if resolved.Distro == "" {
		resolved.Distro = DefaultDistro
	}
	return &resolved, nil
}

// readOverlay decodes dir/devenv.json or, failing that, dir/devenv.toml into v.
// Neither file existing leaves v untouched.
func (l *Loader) readOverlay(dir string, v any) error {
	jsonPath := filepath.Join(dir, configBaseName+".json")
	data, err := l.readOptional(jsonPath)
	if err != nil {
		return err
	}
	if data != nil {
		if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
			return deverrors.ConfigError(fmt.Sprintf("failed to parse %s", jsonPath), err)
		}
		return nil
	}

	tomlPath := filepath.Join(dir, configBaseName+".toml")
	data, err = l.readOptional(tomlPath)
	if err != nil {
		return err
	}
	if data != nil {
		if err := toml.Unmarshal(data, v); err != nil {
			return deverrors.ConfigError(fmt.Sprintf("failed to parse %s", tomlPath), err)
		}
	}
	return nil
}

// readOptional returns nil data for a missing or blank file.
func (l *Loader) readOptional(path string) ([]byte, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, deverrors.ConfigError(fmt.Sprintf("failed to read %s", path), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}
