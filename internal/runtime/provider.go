package runtime

import (
	"context"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/errors"
)

// Info is what a provider currently observes about a container.
type Info struct {
	Status devenv.Status
	IP     string
	Distro string
}

// CreateInput describes a container to create.
type CreateInput struct {
	Name     string
	Distro   string
	User     string
	Worktree string
	// TmpfsPaths are container paths backed by an in-memory filesystem.
	TmpfsPaths []string
}

// ProxyTarget is the address a reverse proxy forwards to.
type ProxyTarget struct {
	Host string
	Port int
}

// Provider is the interface that container backends must implement.
type Provider interface {
	// Kind returns the provider identifier.
	Kind() devenv.ProviderKind

	// Available reports whether the backing runtime answers. It never errors.
	Available(ctx context.Context) bool

	// Info inspects a container. A nil Info with a nil error means the
	// container does not exist.
	Info(ctx context.Context, name string) (*Info, error)

	// Create makes sure a running container exists under input.Name.
	// An existing container is started rather than recreated.
	Create(ctx context.Context, input CreateInput) (*Info, error)

	// Rename renames a container. Renaming to the same name is a no-op.
	Rename(ctx context.Context, current, next string) error

	// Bootstrap installs the developer toolchain if it is not present.
	Bootstrap(ctx context.Context, name string) error

	// Destroy force-removes a container. A missing container is not an error.
	Destroy(ctx context.Context, name string) error

	// ResolveProxyTarget re-inspects the environment and returns the
	// address of port inside it.
	ResolveProxyTarget(ctx context.Context, record devenv.Record, port int) (ProxyTarget, error)
}

// Registry resolves provider kinds to implementations.
type Registry struct {
	providers map[devenv.ProviderKind]Provider
}

// NewRegistry creates a registry holding the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[devenv.ProviderKind]Provider)}
	for _, p := range providers {
		r.providers[p.Kind()] = p
	}
	return r
}

// Get returns the provider for kind without probing it. An empty kind or
// "auto" selects docker.
func (r *Registry) Get(kind devenv.ProviderKind) (Provider, error) {
	if kind == "" || kind == devenv.ProviderAuto {
		kind = devenv.ProviderDocker
	}
	p, ok := r.providers[kind]
	if !ok {
		return nil, errors.UnsupportedProvider(string(kind))
	}
	return p, nil
}

// Resolve returns the provider for kind after confirming it is available.
func (r *Registry) Resolve(ctx context.Context, kind devenv.ProviderKind) (Provider, error) {
	p, err := r.Get(kind)
	if err != nil {
		return nil, err
	}
	if !p.Available(ctx) {
		return nil, errors.ProviderUnavailable(string(p.Kind()))
	}
	return p, nil
}
