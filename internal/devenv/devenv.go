package devenv

import "time"

// StateVersion is the schema version written to new state documents.
const StateVersion = 1

// ProviderKind identifies a container provider.
type ProviderKind string

const (
	ProviderDocker ProviderKind = "docker"
	// ProviderAuto resolves to the default provider.
	ProviderAuto ProviderKind = "auto"
)

// Status is the last observed lifecycle state of an environment.
type Status string

const (
	StatusProvisioning Status = "provisioning"
	StatusRunning      Status = "running"
	StatusStopped      Status = "stopped"
	StatusMissing      Status = "missing"
	StatusError        Status = "error"
	StatusUnknown      Status = "unknown"
)

// NeedsProvisioning reports whether an environment in this status must be
// (re)created before it can be used.
func (s Status) NeedsProvisioning() bool {
	return s == StatusMissing || s == StatusUnknown
}

// Record is the persisted view of one project's environment.
type Record struct {
	// ID is the current container name.
	ID               string       `json:"id"`
	ProjectID        string       `json:"projectId"`
	ProjectName      string       `json:"projectName"`
	Worktree         string       `json:"worktree"`
	Provider         ProviderKind `json:"provider"`
	Status           Status       `json:"status"`
	Distro           string       `json:"distro,omitempty"`
	IP               string       `json:"ip,omitempty"`
	Domain           string       `json:"domain,omitempty"`
	InternalPort     int          `json:"internalPort,omitempty"`
	Bootstrapped     bool         `json:"bootstrapped,omitempty"`
	BootstrapVersion int          `json:"bootstrapVersion,omitempty"`
	// CreatedAt and UpdatedAt are Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Created returns CreatedAt as a time.
func (r Record) Created() time.Time {
	return time.UnixMilli(r.CreatedAt)
}

// Updated returns UpdatedAt as a time.
func (r Record) Updated() time.Time {
	return time.UnixMilli(r.UpdatedAt)
}

// RouteRecord maps a public domain to an environment's internal port.
type RouteRecord struct {
	ProjectID    string `json:"projectId"`
	EnvID        string `json:"envId"`
	Domain       string `json:"domain"`
	InternalPort int    `json:"internalPort"`
	TargetHost   string `json:"targetHost"`
	TargetPort   int    `json:"targetPort"`
	UpdatedAt    int64  `json:"updatedAt,omitempty"`
}

// State is the persisted document holding every environment and route.
type State struct {
	Version int                    `json:"version"`
	Envs    map[string]Record      `json:"envs"`
	Routes  map[string]RouteRecord `json:"routes"`
}

// NewState returns an empty state document.
func NewState() *State {
	return &State{
		Version: StateVersion,
		Envs:    make(map[string]Record),
		Routes:  make(map[string]RouteRecord),
	}
}

// Normalize fills in fields missing from older or hand-edited documents.
func (s *State) Normalize() {
	if s.Version == 0 {
		s.Version = StateVersion
	}
	if s.Envs == nil {
		s.Envs = make(map[string]Record)
	}
	if s.Routes == nil {
		s.Routes = make(map[string]RouteRecord)
	}
}
