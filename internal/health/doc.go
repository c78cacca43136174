// Package health summarizes the readiness of dev environments.
//
// A record is ready when its container is running, it was bootstrapped at
// the current revision, and it has an address the proxy can route to.
//
// # Health Status
//
//	StatusHealthy         - Running, bootstrapped, addressable
//	StatusNotBootstrapped - Running but behind the bootstrap revision
//	StatusNoAddress       - Running and bootstrapped without an IP
//	StatusStopped         - Container exists but is not running
//	StatusMissing         - No container under the recorded name
//
// The checks read the record only; refresh it first (lifecycle Status) for
// the provider's current view.
package health
