package health

import (
	"fmt"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
)

// Status represents the readiness of a dev environment
type Status string

const (
	StatusHealthy         Status = "healthy"
	StatusNotBootstrapped Status = "not-bootstrapped"
	StatusNoAddress       Status = "no-address"
	StatusStopped         Status = "stopped"
	StatusMissing         Status = "missing"
)

// CheckResult contains the results of readiness checks
type CheckResult struct {
	ContainerRunning bool
	Bootstrapped     bool
	Addressable      bool
	Age              string
}

// Check summarizes a record. bootstrapVersion is the revision the record
// must have been bootstrapped at to count as bootstrapped.
func Check(rec devenv.Record, bootstrapVersion int, now time.Time) *CheckResult {
	result := &CheckResult{
		ContainerRunning: rec.Status == devenv.StatusRunning,
		Bootstrapped:     rec.Bootstrapped && rec.BootstrapVersion == bootstrapVersion,
		Addressable:      rec.IP != "",
		Age:              GetAge(rec, now),
	}
	return result
}

// GetAge returns how long ago the record was created, in human-readable form.
func GetAge(rec devenv.Record, now time.Time) string {
	if rec.CreatedAt == 0 {
		return "unknown"
	}
	d := now.Sub(rec.Created())
	if d < 0 {
		d = 0
	}
	return formatDuration(d)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// GetSummary returns a summary readiness status.
func GetSummary(rec devenv.Record, bootstrapVersion int) Status {
	if rec.Status.NeedsProvisioning() {
		return StatusMissing
	}
	if rec.Status != devenv.StatusRunning {
		return StatusStopped
	}
	if !rec.Bootstrapped || rec.BootstrapVersion != bootstrapVersion {
		return StatusNotBootstrapped
	}
	if rec.IP == "" {
		return StatusNoAddress
	}
	return StatusHealthy
}
