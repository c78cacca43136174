// Package runtime provides the container provider abstraction for devenv-ctl.
//
// A Provider owns the container side of a dev environment: it inspects,
// creates, renames, bootstraps and destroys containers, and resolves the
// address a reverse proxy should forward to. Providers are looked up by
// kind through a Registry.
//
// Supported providers:
//   - docker: Docker or Podman through their CLI
//
// Only the docker CLI is spoken on the wire. The Docker Engine SDK is used
// solely as a fast liveness probe; when it cannot reach the daemon the
// provider falls back to "<cli> info".
//
// For testing, use MockProvider:
//
//	mock := runtime.NewMockProvider()
//	mock.AddContainer("opencode-app", devenv.StatusRunning, "172.17.0.2")
//	registry := runtime.NewRegistry(mock)
package runtime
