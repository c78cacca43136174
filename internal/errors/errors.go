package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for devenv-ctl
const (
	ExitSuccess             = 0
	ExitGeneralError        = 1
	ExitEnvNotFound         = 2
	ExitProviderUnavailable = 3
	ExitProvisionFailed     = 4
	ExitContainerFailed     = 5
	ExitConfigError         = 6
	ExitDisabled            = 7
)

// DevEnvError is the base error type for devenv-ctl
type DevEnvError struct {
	Code    int
	Message string
	Cause   error
}

func (e *DevEnvError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DevEnvError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *DevEnvError) ExitCode() int {
	return e.Code
}

// New creates a new DevEnvError
func New(code int, message string) *DevEnvError {
	return &DevEnvError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a DevEnvError
func Wrap(code int, message string, cause error) *DevEnvError {
	return &DevEnvError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// EnvNotFound returns an error for a project without a recorded environment
func EnvNotFound(projectID string) *DevEnvError {
	return New(ExitEnvNotFound, fmt.Sprintf("no dev environment for project: %s", projectID))
}

// ProviderUnavailable returns an error when the provider's runtime cannot be reached
func ProviderUnavailable(kind string) *DevEnvError {
	name := displayName(kind)
	return New(ExitProviderUnavailable, fmt.Sprintf("%s is not available. Please install and start %s.", name, name))
}

// ProviderNotRunning returns an error when the runtime daemon is installed but not answering
func ProviderNotRunning(kind string) *DevEnvError {
	name := displayName(kind)
	return New(ExitProviderUnavailable,
		fmt.Sprintf("%s is not running. Please start %s Desktop or the %s daemon.", name, name, name))
}

// UnsupportedProvider returns an error for an unknown provider kind
func UnsupportedProvider(kind string) *DevEnvError {
	return New(ExitConfigError, fmt.Sprintf("Provider '%s' is not supported. Only 'docker' is available.", kind))
}

// Disabled returns an error when environments are turned off for the project
func Disabled() *DevEnvError {
	return New(ExitDisabled, "Dev environment is disabled for this project.")
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *DevEnvError {
	return Wrap(ExitConfigError, message, cause)
}

// ProvisionFailed returns an error for a failed create or bootstrap
func ProvisionFailed(message string) *DevEnvError {
	return New(ExitProvisionFailed, message)
}

// BootstrapFailed returns an error for a container whose toolchain could not be installed
func BootstrapFailed(name, detail string) *DevEnvError {
	return ProvisionFailed(fmt.Sprintf("DevEnv bootstrap failed for '%s': %s", name, detail))
}

// ContainerFailed returns an error for container operations
func ContainerFailed(message string, cause error) *DevEnvError {
	return Wrap(ExitContainerFailed, message, cause)
}

// NoProxyAddress returns an error when an environment has no routable address
func NoProxyAddress(envID string) *DevEnvError {
	return New(ExitContainerFailed, fmt.Sprintf("DevEnv '%s' has no IP available for proxy routing.", envID))
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *DevEnvError {
	return New(ExitGeneralError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var devErr *DevEnvError
	if errors.As(err, &devErr) {
		return devErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}

func displayName(kind string) string {
	if kind == "" {
		return "Docker"
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}
