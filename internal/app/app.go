package app

import (
	"context"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/lifecycle"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/metrics"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/routes"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/state"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

// App holds the application dependencies
type App struct {
	// Paths holds the configured paths
	Paths *config.Paths

	// FS and Executor reach the host
	FS       system.FileSystem
	Executor system.CommandExecutor

	// Provider is the container provider, instrumented with Metrics
	Provider runtime.Provider

	// CLI is the container command used for interactive exec
	CLI string

	Providers *runtime.Registry
	Store     *state.Store
	Config    *config.Loader
	Audit     *audit.Logger
	Metrics   *metrics.Recorder
}

// Option is a function that configures the App
type Option func(*App)

// WithPaths sets custom paths
func WithPaths(paths *config.Paths) Option {
	return func(a *App) {
		a.Paths = paths
	}
}

// WithFS sets the filesystem used for state, config and audit files
func WithFS(fsys system.FileSystem) Option {
	return func(a *App) {
		a.FS = fsys
	}
}

// WithExecutor sets the command executor
func WithExecutor(exec system.CommandExecutor) Option {
	return func(a *App) {
		a.Executor = exec
	}
}

// WithProvider sets a custom provider instead of the detected docker CLI
func WithProvider(p runtime.Provider) Option {
	return func(a *App) {
		a.Provider = p
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(r *metrics.Recorder) Option {
	return func(a *App) {
		a.Metrics = r
	}
}

// New creates a new App with the given options.
// If no provider is given, the docker or podman CLI is detected.
func New(opts ...Option) (*App, error) {
	app := &App{}
	for _, opt := range opts {
		opt(app)
	}

	if app.Paths == nil {
		paths, err := config.DefaultPaths()
		if err != nil {
			return nil, err
		}
		app.Paths = paths
	}
	if app.FS == nil {
		app.FS = system.DefaultFS()
	}
	if app.Executor == nil {
		app.Executor = system.DefaultExecutor()
	}
	if app.Metrics == nil {
		app.Metrics = metrics.NewRecorder()
	}

	if app.Provider == nil {
		docker, err := runtime.New(&runtime.Config{
			CLI:      runtime.CLIAuto,
			Home:     app.Paths.Home,
			Executor: app.Executor,
		})
		if err != nil {
			return nil, err
		}
		app.Provider = docker
		app.CLI = docker.Command
	}
	if app.CLI == "" {
		app.CLI = string(runtime.CLIDocker)
	}
	logging.Debug("initialized app", "home", app.Paths.Home, "cli", app.CLI)

	app.Providers = runtime.NewRegistry(metrics.Instrument(app.Provider, app.Metrics))
	app.Store = state.NewStore(app.Paths.StateFile, app.FS)
	app.Config = config.NewLoader(app.Paths, app.FS)
	app.Audit = audit.NewLogger(app.Paths.EventsDir, app.FS)
	return app, nil
}

// Manager creates the lifecycle manager for a host project.
func (a *App) Manager(rawProjectID, worktree string) *lifecycle.Manager {
	return lifecycle.New(rawProjectID, worktree, lifecycle.Options{
		Store:     a.Store,
		Providers: a.Providers,
		Config:    a.Config,
		FS:        a.FS,
		Events:    a.Audit,
		Steps:     a.Metrics,
	})
}

// Routes creates the routing table using the global proxy settings.
func (a *App) Routes() (*routes.Table, *config.GlobalConfig, error) {
	global, err := a.Config.Global()
	if err != nil {
		return nil, nil, err
	}
	return routes.NewTable(a.Store, a.FS, a.Paths.GatewayRoot, global.ResolveProxy()), global, nil
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying a.
func WithContext(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the App carried by ctx.
func FromContext(ctx context.Context) (*App, bool) {
	a, ok := ctx.Value(contextKey{}).(*App)
	return a, ok && a != nil
}
