// Package integration provides a test harness for integration tests
// that require an actual container engine.
//
// Integration tests are skipped unless the DEVENV_INTEGRATION_TESTS
// environment variable is set to 1. These tests require:
//   - A running Docker (or Podman) engine
//   - Network access to pull the test image
//
// Tests that bootstrap the toolchain (apt, Node.js, Bun) take minutes and
// additionally require DEVENV_INTEGRATION_BOOTSTRAP=1.
//
// # Test Harness
//
// Harness wires a real app.App around a temporary HOME:
//
//	func TestMyIntegration(t *testing.T) {
//	    h := integration.NewHarness(t) // Skips if disabled or no engine
//
//	    tree := h.CreateWorktree("my-project")
//	    mgr := h.Manager("global", tree)
//	    rec, err := mgr.Ensure(ctx, nil)
//	    h.Track(rec.ProjectID)
//
//	    // Cleanup is automatic via t.Cleanup
//	}
//
// Run with: DEVENV_INTEGRATION_TESTS=1 go test -v ./internal/integration/...
package integration
