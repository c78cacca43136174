// Package config provides configuration types and loading for devenv-ctl.
//
// # Configuration Files
//
// Two optional files are layered over built-in defaults:
//
//   - Global: $HOME/.config/opencode/devenv.json (or devenv.toml)
//   - Project: <worktree>/.opencode/devenv.json (or devenv.toml)
//
// JSON files may contain comments and trailing commas. A missing or blank
// file is an empty overlay; a malformed file is a configuration error.
//
// # Resolution
//
// Each field resolves independently:
//
//	provider = project.provider ?? global.defaultProvider ?? "docker"
//	distro   = project.distro   ?? global.defaultDistro   ?? DefaultDistro
//	enabled  = project.enabled  ?? true
//
// machineName, user, domain and internalPort come from the project file
// or from per-call overrides only.
//
// # Paths
//
// Paths derives every on-disk location from $HOME:
//
//	$HOME/.config/opencode/devenv-state.json   state document
//	$HOME/.config/opencode/devenv/             gateway files (routes.yaml, hosts)
//	$HOME/.config/opencode/devenv/events/      audit event logs
package config
