// Package routes keeps the domain routing table for dev environments and
// renders it for the local reverse proxy.
//
// Routes live in the devenv state document next to the environments. The
// proxy itself is an external process; this package only writes the files
// it watches.
package routes

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/identity"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/state"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

// EntrypointName is the proxy entrypoint every router is attached to.
const EntrypointName = "web"

// ResolveDomain turns a label into a host name under suffix. A blank label
// is the suffix itself and a label containing a dot is used verbatim.
func ResolveDomain(label, suffix string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return suffix
	}
	if strings.Contains(trimmed, ".") {
		return trimmed
	}
	slug := identity.Slugify(trimmed)
	if slug == "" {
		slug = trimmed
	}
	return slug + "." + suffix
}

// Paths locates the files the proxy reads.
type Paths struct {
	Directory  string
	ConfigPath string
	RoutesPath string
	HostsPath  string
}

// PathsFor derives proxy paths from the gateway root.
func PathsFor(gatewayRoot string) Paths {
	dir := filepath.Join(gatewayRoot, "traefik")
	return Paths{
		Directory:  dir,
		ConfigPath: filepath.Join(dir, "traefik.yaml"),
		RoutesPath: filepath.Join(gatewayRoot, "routes.yaml"),
		HostsPath:  filepath.Join(gatewayRoot, "hosts"),
	}
}

// Table is the routing table stored in the state document.
type Table struct {
	store *state.Store
	fs    system.FileSystem
	paths Paths
	proxy config.ResolvedProxy
	now   func() time.Time
}

// NewTable creates a Table. Proxy files are only written when the proxy is
// enabled.
func NewTable(store *state.Store, fsys system.FileSystem, gatewayRoot string, proxy config.ResolvedProxy) *Table {
	if fsys == nil {
		fsys = system.DefaultFS()
	}
	return &Table{
		store: store,
		fs:    fsys,
		paths: PathsFor(gatewayRoot),
		proxy: proxy,
		now:   time.Now,
	}
}

// Paths returns the proxy file locations.
func (t *Table) Paths() Paths {
	return t.paths
}

// List returns all routes ordered by project id.
func (t *Table) List() ([]devenv.RouteRecord, error) {
	st, err := t.store.Load()
	if err != nil {
		return nil, err
	}
	return sorted(st.Routes), nil
}

// Upsert stores route under its project id and rewrites the proxy files.
func (t *Table) Upsert(route devenv.RouteRecord) ([]devenv.RouteRecord, error) {
	route.UpdatedAt = t.now().UnixMilli()
	st, err := t.store.UpsertRoute(route)
	if err != nil {
		return nil, err
	}
	routes := sorted(st.Routes)
	logging.Debug("route stored", "projectId", route.ProjectID, "domain", route.Domain,
		"target", fmt.Sprintf("%s:%d", route.TargetHost, route.TargetPort))
	return routes, t.sync(routes)
}

// Remove drops the route for projectID and rewrites the proxy files.
func (t *Table) Remove(projectID string) ([]devenv.RouteRecord, error) {
	st, err := t.store.RemoveRoute(projectID)
	if err != nil {
		return nil, err
	}
	routes := sorted(st.Routes)
	return routes, t.sync(routes)
}

// Sync rewrites the proxy files from the stored routes.
func (t *Table) Sync() error {
	routes, err := t.List()
	if err != nil {
		return err
	}
	return t.sync(routes)
}

func (t *Table) sync(routes []devenv.RouteRecord) error {
	if !t.proxy.Enabled {
		return nil
	}
	return WriteFiles(t.fs, t.paths, routes, t.proxy.Entrypoint)
}

// WriteFiles writes the proxy static config, the dynamic routes file and a
// hosts snippet.
func WriteFiles(fsys system.FileSystem, paths Paths, routes []devenv.RouteRecord, entrypoint int) error {
	if err := fsys.MkdirAll(paths.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create proxy directory: %w", err)
	}

	proxyConfig, err := BuildProxyConfig(paths, entrypoint)
	if err != nil {
		return err
	}
	routesFile, err := BuildRoutesFile(routes, EntrypointName)
	if err != nil {
		return err
	}

	files := []struct {
		path string
		data []byte
	}{
		{paths.ConfigPath, proxyConfig},
		{paths.RoutesPath, routesFile},
		{paths.HostsPath, []byte(BuildHostsFile(routes))},
	}
	for _, f := range files {
		if err := fsys.WriteFile(f.path, f.data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}
	}
	return nil
}

// BuildHostsFile renders one loopback line per route.
func BuildHostsFile(routes []devenv.RouteRecord) string {
	var b strings.Builder
	for _, route := range routes {
		fmt.Fprintf(&b, "127.0.0.1 %s\n", route.Domain)
	}
	return b.String()
}

type dynamicConfig struct {
	HTTP httpConfig `yaml:"http"`
}

type httpConfig struct {
	Routers  map[string]router  `yaml:"routers"`
	Services map[string]service `yaml:"services"`
}

type router struct {
	Rule        string   `yaml:"rule"`
	EntryPoints []string `yaml:"entryPoints,flow"`
	Service     string   `yaml:"service"`
}

type service struct {
	LoadBalancer loadBalancer `yaml:"loadBalancer"`
}

type loadBalancer struct {
	Servers []server `yaml:"servers"`
}

type server struct {
	URL string `yaml:"url"`
}

// BuildRoutesFile renders routes as a Traefik file-provider dynamic config.
func BuildRoutesFile(routes []devenv.RouteRecord, entrypoint string) ([]byte, error) {
	cfg := dynamicConfig{HTTP: httpConfig{
		Routers:  make(map[string]router, len(routes)),
		Services: make(map[string]service, len(routes)),
	}}
	for _, route := range routes {
		svc := "svc-" + route.ProjectID
		cfg.HTTP.Routers[route.ProjectID] = router{
			Rule:        fmt.Sprintf("Host(`%s`)", route.Domain),
			EntryPoints: []string{entrypoint},
			Service:     svc,
		}
		cfg.HTTP.Services[svc] = service{LoadBalancer: loadBalancer{
			Servers: []server{{URL: fmt.Sprintf("http://%s:%d", route.TargetHost, route.TargetPort)}},
		}}
	}
	return marshal(cfg)
}

type staticConfig struct {
	EntryPoints map[string]entryPoint `yaml:"entryPoints"`
	Providers   providers             `yaml:"providers"`
	API         api                   `yaml:"api"`
}

type entryPoint struct {
	Address string `yaml:"address"`
}

type providers struct {
	File fileProvider `yaml:"file"`
}

type fileProvider struct {
	Filename string `yaml:"filename"`
	Watch    bool   `yaml:"watch"`
}

type api struct {
	Dashboard bool `yaml:"dashboard"`
}

// BuildProxyConfig renders the proxy's static config, pointing its file
// provider at the routes file.
func BuildProxyConfig(paths Paths, entrypoint int) ([]byte, error) {
	if entrypoint <= 0 {
		entrypoint = config.DefaultEntrypoint
	}
	return marshal(staticConfig{
		EntryPoints: map[string]entryPoint{EntrypointName: {Address: fmt.Sprintf(":%d", entrypoint)}},
		Providers:   providers{File: fileProvider{Filename: paths.RoutesPath, Watch: true}},
	})
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to render proxy config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to render proxy config: %w", err)
	}
	return buf.Bytes(), nil
}

func sorted(routes map[string]devenv.RouteRecord) []devenv.RouteRecord {
	out := make([]devenv.RouteRecord, 0, len(routes))
	for _, route := range routes {
		out = append(out, route)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProjectID < out[j].ProjectID
	})
	return out
}
