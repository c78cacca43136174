// Package testutil provides test fixtures and utilities.
//
// # Fixtures
//
// Fixtures are embedded using go:embed:
//
//	fixtures/valid_project_config.json   (JSONC)
//	fixtures/invalid_project_config.json
//	fixtures/global_config.toml
//	fixtures/legacy_state.json
//
// Helper functions load and parse them into typed values:
//
//	cfg, err := testutil.ValidProjectConfig()
//	global, err := testutil.GlobalConfig()
//	st, err := testutil.LegacyState()
//
// # Test Environment
//
// NewTestEnv sets HOME to a temporary directory, creates a working tree
// named "app" and builds an app.App around a runtime.MockProvider:
//
//	env := testutil.NewTestEnv(t)
//	env.WriteProjectConfig(`{"distro": "ubuntu:24.04"}`)
//	mgr := env.App.Manager("global", env.Worktree)
package testutil
