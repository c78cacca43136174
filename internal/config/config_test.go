package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	deverrors "github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestLoader(t *testing.T) (*Loader, *Paths, string) {
	t.Helper()
	home := t.TempDir()
	worktree := t.TempDir()
	paths := PathsFor(home)
	return NewLoader(paths, system.DefaultFS()), paths, worktree
}

func TestPathsFor(t *testing.T) {
	paths := PathsFor("/home/alice")

	want := map[string]string{
		"ConfigDir":   "/home/alice/.config/opencode",
		"StateFile":   "/home/alice/.config/opencode/devenv-state.json",
		"GatewayRoot": "/home/alice/.config/opencode/devenv",
		"EventsDir":   "/home/alice/.config/opencode/devenv/events",
	}
	got := map[string]string{
		"ConfigDir":   paths.ConfigDir,
		"StateFile":   paths.StateFile,
		"GatewayRoot": paths.GatewayRoot,
		"EventsDir":   paths.EventsDir,
	}
	for field, w := range want {
		if got[field] != w {
			t.Errorf("%s = %q, want %q", field, got[field], w)
		}
	}
}

func TestDefaultPaths_NoHome(t *testing.T) {
	t.Setenv("HOME", "")

	_, err := DefaultPaths()
	if err == nil {
		t.Fatal("expected error when HOME is unset")
	}
	if deverrors.GetExitCode(err) != deverrors.ExitConfigError {
		t.Errorf("exit code = %d, want %d", deverrors.GetExitCode(err), deverrors.ExitConfigError)
	}
}

func TestLoad_Defaults(t *testing.T) {
	loader, _, worktree := newTestLoader(t)

	cfg, err := loader.Load(worktree)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != devenv.ProviderDocker {
		t.Errorf("Provider = %q, want docker", cfg.Provider)
	}
	if cfg.Distro != DefaultDistro {
		t.Errorf("Distro = %q, want %q", cfg.Distro, DefaultDistro)
	}
	if !cfg.IsEnabled() {
		t.Error("environments should be enabled by default")
	}
	if cfg.MachineName != "" {
		t.Errorf("MachineName = %q, want empty", cfg.MachineName)
	}
}

func TestLoad_GlobalThenProject(t *testing.T) {
	loader, paths, worktree := newTestLoader(t)

	writeFile(t, filepath.Join(paths.ConfigDir, "devenv.json"), `{
		// user defaults
		"defaultDistro": "ubuntu:24.04",
		"domain": "dev.test",
	}`)
	writeFile(t, filepath.Join(worktree, ".opencode", "devenv.json"), `{
		"machineName": "my-box",
		"internalPort": 5173
	}`)

	cfg, err := loader.Load(worktree)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Distro != "ubuntu:24.04" {
		t.Errorf("Distro = %q, want global default", cfg.Distro)
	}
	if cfg.MachineName != "my-box" {
		t.Errorf("MachineName = %q, want my-box", cfg.MachineName)
	}
	if cfg.InternalPort != 5173 {
		t.Errorf("InternalPort = %d, want 5173", cfg.InternalPort)
	}

	global, err := loader.Global()
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if global.DomainSuffix() != "dev.test" {
		t.Errorf("DomainSuffix = %q, want dev.test", global.DomainSuffix())
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	loader, paths, worktree := newTestLoader(t)

	writeFile(t, filepath.Join(paths.ConfigDir, "devenv.json"), `{"defaultDistro": "ubuntu:24.04"}`)
	writeFile(t, filepath.Join(worktree, ".opencode", "devenv.json"), `{"distro": "debian:12", "enabled": false}`)

	cfg, err := loader.Load(worktree)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Distro != "debian:12" {
		t.Errorf("Distro = %q, want debian:12", cfg.Distro)
	}
	if cfg.IsEnabled() {
		t.Error("project disabled environments")
	}
}

func TestLoad_TOML(t *testing.T) {
	loader, paths, worktree := newTestLoader(t)

	writeFile(t, filepath.Join(paths.ConfigDir, "devenv.toml"), `
defaultProvider = "docker"
domain = "lan"

[proxy]
entrypoint = 8080
`)
	writeFile(t, filepath.Join(worktree, ".opencode", "devenv.toml"), `
user = "dev"
machineName = "opencode-custom"
`)

	cfg, err := loader.Load(worktree)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.User != "dev" || cfg.MachineName != "opencode-custom" {
		t.Errorf("project toml not applied: %+v", cfg)
	}

	global, err := loader.Global()
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	proxy := global.ResolveProxy()
	if proxy.Entrypoint != 8080 || !proxy.Enabled || proxy.TraefikBinary != DefaultTraefik {
		t.Errorf("ResolveProxy = %+v", proxy)
	}
}

func TestLoad_BlankFileIsEmpty(t *testing.T) {
	loader, _, worktree := newTestLoader(t)
	writeFile(t, filepath.Join(worktree, ".opencode", "devenv.json"), "  \n")

	if _, err := loader.Load(worktree); err != nil {
		t.Fatalf("blank file should be an empty overlay: %v", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	loader, _, worktree := newTestLoader(t)
	writeFile(t, filepath.Join(worktree, ".opencode", "devenv.json"), `{"distro": `)

	_, err := loader.Load(worktree)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if deverrors.GetExitCode(err) != deverrors.ExitConfigError {
		t.Errorf("exit code = %d, want %d", deverrors.GetExitCode(err), deverrors.ExitConfigError)
	}
}

func TestLoad_InvalidMachineName(t *testing.T) {
	loader, _, worktree := newTestLoader(t)
	writeFile(t, filepath.Join(worktree, ".opencode", "devenv.json"), `{"machineName": "Bad Name"}`)

	if _, err := loader.Load(worktree); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_EmptyWorktree(t *testing.T) {
	loader, _, _ := newTestLoader(t)

	cfg, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != DefaultProvider {
		t.Errorf("Provider = %q, want default", cfg.Provider)
	}
}

func TestMerge(t *testing.T) {
	disabled := false
	base := &Config{Provider: devenv.ProviderDocker, Distro: "a", MachineName: "base"}
	override := &Config{Distro: "b", Enabled: &disabled}

	merged := Merge(base, override)

	if merged.Distro != "b" {
		t.Errorf("Distro = %q, want b", merged.Distro)
	}
	if merged.MachineName != "base" {
		t.Errorf("MachineName = %q, want base", merged.MachineName)
	}
	if merged.IsEnabled() {
		t.Error("override should disable")
	}
	if base.Distro != "a" || base.Enabled != nil {
		t.Error("Merge modified its base")
	}

	if got := Merge(base, nil); got.MachineName != "base" || got == base {
		t.Error("Merge with nil override should copy base")
	}
}

func TestValidateMachineName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"opencode-app", false},
		{"a", false},
		{"box.v2", false},
		{"", true},
		{"-leading", true},
		{"Upper", true},
		{"has space", true},
		{"../escape", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMachineName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMachineName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InternalPort(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"unset", 0, false},
		{"lowest", 1, false},
		{"highest", 65535, false},
		{"negative", -1, true},
		{"too high", 70000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Config{InternalPort: tt.port}).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(port %d) error = %v, wantErr %v", tt.port, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "0 (unset) or between 1 and 65535") {
				t.Errorf("error = %q, want the accepted range", err)
			}
		})
	}
}
