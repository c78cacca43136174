// Package testutil provides test utilities for command and integration tests
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

// TestEnv holds the test environment
type TestEnv struct {
	T        *testing.T
	Home     string
	Worktree string
	Paths    *config.Paths
	Provider *runtime.MockProvider
	Executor *system.MockExecutor
	App      *app.App
}

// NewTestEnv creates a test environment with a temporary HOME, a working
// tree named "app" inside it, and a mock provider.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	worktree := filepath.Join(home, "app")
	if err := os.MkdirAll(worktree, 0755); err != nil {
		t.Fatalf("Failed to create worktree: %v", err)
	}

	paths := config.PathsFor(home)
	provider := runtime.NewMockProvider()
	executor := system.NewMockExecutor()

	testApp, err := app.New(
		app.WithPaths(paths),
		app.WithProvider(provider),
		app.WithExecutor(executor),
	)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}

	return &TestEnv{
		T:        t,
		Home:     home,
		Worktree: worktree,
		Paths:    paths,
		Provider: provider,
		Executor: executor,
		App:      testApp,
	}
}

// WriteFile writes a file relative to the test HOME.
func (e *TestEnv) WriteFile(rel, content string) string {
	e.T.Helper()

	path := filepath.Join(e.Home, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		e.T.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.T.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}

// WriteProjectConfig writes .opencode/devenv.json in the worktree.
func (e *TestEnv) WriteProjectConfig(content string) {
	e.T.Helper()
	rel, err := filepath.Rel(e.Home, filepath.Join(e.Worktree, config.ProjectConfigDir, "devenv.json"))
	if err != nil {
		e.T.Fatalf("Failed to resolve project config path: %v", err)
	}
	e.WriteFile(rel, content)
}

// WriteGlobalConfig writes the global config file with the given extension
// ("json" or "toml").
func (e *TestEnv) WriteGlobalConfig(ext, content string) {
	e.T.Helper()
	e.WriteFile(filepath.Join(".config", "opencode", "devenv."+ext), content)
}

// AddRecord stores a record and, unless it is missing, a matching container.
func (e *TestEnv) AddRecord(rec devenv.Record) {
	e.T.Helper()

	if _, err := e.App.Store.UpsertRecord(rec); err != nil {
		e.T.Fatalf("Failed to store record: %v", err)
	}
	if !rec.Status.NeedsProvisioning() {
		e.Provider.AddContainer(rec.ID, rec.Status, rec.IP)
	}
}

// SaveState replaces the state document.
func (e *TestEnv) SaveState(st *devenv.State) {
	e.T.Helper()
	if err := e.App.Store.Save(st); err != nil {
		e.T.Fatalf("Failed to save state: %v", err)
	}
}

// Record returns the stored record for projectID.
func (e *TestEnv) Record(projectID string) (devenv.Record, bool) {
	e.T.Helper()
	rec, ok, err := e.App.Store.Record(projectID)
	if err != nil {
		e.T.Fatalf("Failed to load record: %v", err)
	}
	return rec, ok
}
