// Package errors provides typed errors with exit codes for devenv-ctl.
//
// # Error Types
//
// DevEnvError is the base error type that wraps an error with an exit code:
//
//	type DevEnvError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess             = 0  // Success
//	ExitGeneralError        = 1  // General/unknown errors
//	ExitEnvNotFound         = 2  // No environment recorded for the project
//	ExitProviderUnavailable = 3  // Container runtime missing or not running
//	ExitProvisionFailed     = 4  // Create or bootstrap failed
//	ExitContainerFailed     = 5  // Rename, destroy or inspect failed
//	ExitConfigError         = 6  // Configuration error
//	ExitDisabled            = 7  // Environments disabled for the project
//
// Provider failures carry the runtime's stderr in Message so the user sees
// exactly what the container runtime reported:
//
//	errors.ProvisionFailed(fmt.Sprintf("Failed to create Docker container '%s': %s", name, stderr))
//
// # Extracting Exit Codes
//
// Use GetExitCode to extract the exit code from an error chain:
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
