// Package logging provides logging utilities for devenv-ctl.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("provisioning", "projectId", id, "name", name)
//	logging.Warn("audit write failed", "error", err)
//
// Long-lived components take a module logger, which tags every record
// with service=devenv.<module>:
//
//	log := logging.Module("manager")
//	log.Info("renamed", "from", old, "to", name)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Ensuring dev environment for %s...", projectName)
//	logging.UserSuccess("Dev environment %s is running", name)
//	logging.UserWarning("No route recorded for %s", projectID)
//	logging.UserError("Failed to destroy %s: %v", name, err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
//
// # Status Indicators
//
// User functions prepend status indicators:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
