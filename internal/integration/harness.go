package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/lifecycle"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/runtime"
)

const (
	// EnvEnable turns integration tests on.
	EnvEnable = "DEVENV_INTEGRATION_TESTS"
	// EnvBootstrap additionally enables tests that install the toolchain.
	EnvBootstrap = "DEVENV_INTEGRATION_BOOTSTRAP"

	// TestImage is small and ships coreutils "sleep infinity".
	TestImage = "debian:12-slim"
)

// Enabled reports whether integration tests should run.
func Enabled() bool {
	return os.Getenv(EnvEnable) == "1"
}

// Harness provides utilities for integration testing with real containers.
type Harness struct {
	t        *testing.T
	home     string
	app      *app.App
	projects []string
}

// NewHarness creates a new test harness.
// It skips the test if integration tests are disabled or no engine answers.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	if !Enabled() {
		t.Skipf("integration tests disabled (set %s=1 to enable)", EnvEnable)
	}

	home := t.TempDir()
	t.Setenv("HOME", home)

	a, err := app.New(app.WithPaths(config.PathsFor(home)))
	if err != nil {
		t.Skipf("no container CLI available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if !a.Provider.Available(ctx) {
		t.Skip("container engine not responsive")
	}

	h := &Harness{t: t, home: home, app: a}
	t.Cleanup(h.Cleanup)
	return h
}

// App returns the wired application.
func (h *Harness) App() *app.App {
	return h.app
}

// Provider returns the real provider.
func (h *Harness) Provider() runtime.Provider {
	return h.app.Provider
}

// Manager creates a lifecycle manager for a project in the test HOME.
func (h *Harness) Manager(rawProjectID, worktree string) *lifecycle.Manager {
	return h.app.Manager(rawProjectID, worktree)
}

// CreateWorktree creates a project directory under the test HOME.
func (h *Harness) CreateWorktree(name string) string {
	h.t.Helper()

	path := filepath.Join(h.home, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		h.t.Fatalf("Failed to create worktree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, "README.md"), []byte("# Test Project\n"), 0644); err != nil {
		h.t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

// WriteProjectConfig writes the project overlay for worktree.
func (h *Harness) WriteProjectConfig(worktree, content string) {
	h.t.Helper()

	dir := filepath.Join(worktree, config.ProjectConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		h.t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "devenv.json"), []byte(content), 0644); err != nil {
		h.t.Fatalf("Failed to write project config: %v", err)
	}
}

// Track registers a project whose environment is destroyed on cleanup.
func (h *Harness) Track(projectID string) {
	h.projects = append(h.projects, projectID)
}

// Cleanup destroys every tracked environment.
func (h *Harness) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mgr := h.app.Manager("global", "")
	for _, id := range h.projects {
		if _, err := mgr.Destroy(ctx, id); err != nil {
			h.t.Logf("Warning: failed to destroy %s: %v", id, err)
		}
	}
}
