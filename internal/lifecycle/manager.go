package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/identity"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/state"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

// BootstrapVersion is the revision of the in-container toolchain setup.
// Records bootstrapped at any other revision are bootstrapped again.
const BootstrapVersion = 4

// Reconcile step names reported to a StepObserver.
const (
	StepRefresh   = "refresh"
	StepMissing   = "missing"
	StepMigrate   = "migrate"
	StepProvision = "provision"
	StepRename    = "rename"
	StepBootstrap = "bootstrap"
	StepDestroy   = "destroy"
)

// nextConfigFiles mark a Next.js tree whose build cache is kept in tmpfs.
var nextConfigFiles = []string{
	"next.config.js",
	"next.config.mjs",
	"next.config.cjs",
	"next.config.ts",
}

// EventSink receives lifecycle events.
type EventSink interface {
	Log(event audit.Event) error
}

// StepObserver counts reconcile steps.
type StepObserver interface {
	Step(step string)
}

// Options holds the Manager's collaborators. Store, Providers and Config
// are required.
type Options struct {
	Store     *state.Store
	Providers *runtime.Registry
	Config    *config.Loader

	// FS is used to look for scratch-path markers in the working tree.
	FS system.FileSystem

	Events EventSink
	Steps  StepObserver
	Now    func() time.Time
	Logger *slog.Logger
}

// Manager is the lifecycle authority for one host project.
type Manager struct {
	rawID    string
	worktree string

	store     *state.Store
	providers *runtime.Registry
	config    *config.Loader
	fs        system.FileSystem
	events    EventSink
	steps     StepObserver
	now       func() time.Time
	log       *slog.Logger
}

// New creates a Manager for the host-supplied project id and working tree.
func New(rawProjectID, worktree string, opts Options) *Manager {
	m := &Manager{
		rawID:     rawProjectID,
		worktree:  worktree,
		store:     opts.Store,
		providers: opts.Providers,
		config:    opts.Config,
		fs:        opts.FS,
		events:    opts.Events,
		steps:     opts.Steps,
		now:       opts.Now,
		log:       opts.Logger,
	}
	if m.fs == nil {
		m.fs = system.DefaultFS()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.log == nil {
		m.log = logging.Module("manager")
	}
	return m
}

// context resolves the identity for a working tree; empty means the
// Manager's own tree.
func (m *Manager) context(worktree string) identity.Context {
	if worktree == "" {
		worktree = m.worktree
	}
	return identity.Resolve(m.rawID, worktree)
}

// ProjectInfo returns the resolved identity of the Manager's project.
func (m *Manager) ProjectInfo() identity.Context {
	return m.context("")
}

// List returns every recorded environment ordered by project id.
func (m *Manager) List() ([]devenv.Record, error) {
	st, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	records := make([]devenv.Record, 0, len(st.Envs))
	for _, rec := range st.Envs {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ProjectID < records[j].ProjectID
	})
	return records, nil
}

// Status refreshes and returns the project's record, or nil when there is none.
func (m *Manager) Status(ctx context.Context) (*devenv.Record, error) {
	pc := m.context("")
	return m.statusWithContext(ctx, pc, m.log.With("projectId", pc.ProjectID))
}

// Ensure reconciles the project's environment and returns its record.
func (m *Manager) Ensure(ctx context.Context, overrides *config.Config) (*devenv.Record, error) {
	return m.ensureWithContext(ctx, m.context(""), overrides)
}

// EnsureForWorkdir reconciles the environment of another working tree under
// the Manager's host project id.
func (m *Manager) EnsureForWorkdir(ctx context.Context, workdir string, overrides *config.Config) (*devenv.Record, error) {
	if workdir == "" {
		return nil, errors.ValidationError("workdir is required")
	}
	return m.ensureWithContext(ctx, m.context(workdir), overrides)
}

func (m *Manager) ensureWithContext(ctx context.Context, pc identity.Context, overrides *config.Config) (*devenv.Record, error) {
	log := m.log.With("op", uuid.NewString(), "projectId", pc.ProjectID)

	cfg, err := m.resolveConfig(pc.Worktree, overrides)
	if err != nil {
		return nil, err
	}
	if !cfg.IsEnabled() {
		return nil, errors.Disabled()
	}

	desired := cfg.MachineName
	if desired == "" {
		desired = identity.BuildMachineName(pc.ProjectName, pc.ProjectID)
	}
	log.Debug("ensuring dev environment", "worktree", pc.Worktree, "desired", desired)

	rec, err := m.statusWithContext(ctx, pc, log)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Status.NeedsProvisioning() {
		rec, err = m.provision(ctx, pc, cfg, desired, log)
		if err != nil {
			return nil, err
		}
	}

	rec, err = m.renameIfNeeded(ctx, rec, desired, log)
	if err != nil {
		return nil, err
	}
	return m.bootstrap(ctx, rec, log)
}

// resolveConfig merges explicit overrides over the loaded configuration.
func (m *Manager) resolveConfig(worktree string, overrides *config.Config) (*config.Config, error) {
	if err := overrides.Validate(); err != nil {
		return nil, errors.ConfigError("invalid overrides", err)
	}
	base, err := m.config.Load(worktree)
	if err != nil {
		return nil, err
	}
	return config.Merge(base, overrides), nil
}

// statusWithContext loads the record for pc, migrating one kept under the
// raw host id, and refreshes it from the provider.
func (m *Manager) statusWithContext(ctx context.Context, pc identity.Context, log *slog.Logger) (*devenv.Record, error) {
	st, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	key := pc.ProjectID
	rec, ok := st.Envs[key]
	if !ok && pc.Legacy() {
		key = pc.RawID
		rec, ok = st.Envs[key]
	}
	if !ok {
		return nil, nil
	}

	if rec.ProjectID != pc.ProjectID {
		// A record from another tree that shared the raw id is not ours.
		if rec.Worktree != "" && rec.Worktree != pc.Worktree {
			log.Debug("ignoring legacy record from another worktree", "key", key, "worktree", rec.Worktree)
			return nil, nil
		}
		return m.migrate(key, rec, pc, log)
	}

	provider, err := m.providers.Get(rec.Provider)
	if err != nil {
		return nil, err
	}
	info, err := provider.Info(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	if rec.ProjectName == "" {
		rec.ProjectName = pc.ProjectName
	}
	rec.UpdatedAt = m.now().UnixMilli()

	if info == nil {
		rec.Status = devenv.StatusMissing
		if err := m.save(rec); err != nil {
			return nil, err
		}
		log.Info("dev environment container is missing", "container", rec.ID)
		m.step(StepMissing)
		m.event(log, audit.EventMissing, rec, "")
		return &rec, nil
	}

	rec.Status = info.Status
	if info.Distro != "" {
		rec.Distro = info.Distro
	}
	if info.IP != "" {
		rec.IP = info.IP
	}
	if err := m.save(rec); err != nil {
		return nil, err
	}
	m.step(StepRefresh)
	return &rec, nil
}

// migrate rewrites a record found under key onto the canonical project id.
func (m *Manager) migrate(key string, rec devenv.Record, pc identity.Context, log *slog.Logger) (*devenv.Record, error) {
	from := rec.ProjectID
	rec.ProjectID = pc.ProjectID
	if rec.ProjectName == "" {
		rec.ProjectName = pc.ProjectName
	}
	if rec.Worktree == "" {
		rec.Worktree = pc.Worktree
	}

	if _, err := m.store.MoveRecord(key, rec); err != nil {
		return nil, err
	}
	log.Info("migrated dev environment record", "from", from, "container", rec.ID)
	m.step(StepMigrate)
	m.event(log, audit.EventMigrate, rec, "from="+from)
	return &rec, nil
}

// provision creates the container for pc. The record is stored as
// provisioning before the provider is called.
func (m *Manager) provision(ctx context.Context, pc identity.Context, cfg *config.Config, name string, log *slog.Logger) (*devenv.Record, error) {
	provider, err := m.providers.Resolve(ctx, cfg.Provider)
	if err != nil {
		return nil, err
	}

	st, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	now := m.now().UnixMilli()

	pending, ok := st.Envs[pc.ProjectID]
	if !ok {
		pending = devenv.Record{
			ProjectID:   pc.ProjectID,
			ProjectName: pc.ProjectName,
			Worktree:    pc.Worktree,
			CreatedAt:   now,
		}
	}
	pending.ID = name
	pending.Provider = provider.Kind()
	pending.Status = devenv.StatusProvisioning
	if cfg.Distro != "" {
		pending.Distro = cfg.Distro
	}
	if cfg.Domain != "" {
		pending.Domain = cfg.Domain
	}
	if cfg.InternalPort != 0 {
		pending.InternalPort = cfg.InternalPort
	}
	// A new container has not been bootstrapped whatever the old record says.
	pending.Bootstrapped = false
	pending.BootstrapVersion = 0
	pending.UpdatedAt = now

	if err := m.save(pending); err != nil {
		return nil, err
	}

	log.Info("provisioning dev environment", "container", name, "provider", provider.Kind(), "distro", pending.Distro)

	info, err := provider.Create(ctx, runtime.CreateInput{
		Name:       name,
		Distro:     pending.Distro,
		User:       cfg.User,
		Worktree:   pc.Worktree,
		TmpfsPaths: m.scratchPaths(pc.Worktree),
	})
	if err != nil {
		m.event(log, audit.EventError, pending, "provision: "+err.Error())
		return nil, err
	}

	rec := pending
	rec.Status = info.Status
	if info.Distro != "" {
		rec.Distro = info.Distro
	}
	if info.IP != "" {
		rec.IP = info.IP
	}
	rec.UpdatedAt = m.now().UnixMilli()
	if err := m.save(rec); err != nil {
		return nil, err
	}

	m.step(StepProvision)
	m.event(log, audit.EventProvision, rec, "distro="+rec.Distro)
	return &rec, nil
}

func (m *Manager) renameIfNeeded(ctx context.Context, rec *devenv.Record, desired string, log *slog.Logger) (*devenv.Record, error) {
	if rec.ID == desired {
		return rec, nil
	}

	provider, err := m.providers.Get(rec.Provider)
	if err != nil {
		return nil, err
	}
	if err := provider.Rename(ctx, rec.ID, desired); err != nil {
		m.event(log, audit.EventError, *rec, "rename: "+err.Error())
		return nil, err
	}

	from := rec.ID
	next := *rec
	next.ID = desired
	next.UpdatedAt = m.now().UnixMilli()
	if err := m.save(next); err != nil {
		return nil, err
	}

	log.Info("renamed dev environment", "from", from, "to", desired)
	m.step(StepRename)
	m.event(log, audit.EventRename, next, "from="+from)
	return &next, nil
}

// bootstrap brings the record to BootstrapVersion. A failure leaves the
// stored version untouched so the next Ensure retries.
func (m *Manager) bootstrap(ctx context.Context, rec *devenv.Record, log *slog.Logger) (*devenv.Record, error) {
	if rec.BootstrapVersion == BootstrapVersion {
		return rec, nil
	}

	provider, err := m.providers.Get(rec.Provider)
	if err != nil {
		return nil, err
	}
	log.Info("bootstrapping dev environment", "container", rec.ID, "from", rec.BootstrapVersion, "to", BootstrapVersion)
	if err := provider.Bootstrap(ctx, rec.ID); err != nil {
		m.event(log, audit.EventError, *rec, "bootstrap: "+err.Error())
		return nil, err
	}

	next := *rec
	next.Bootstrapped = true
	next.BootstrapVersion = BootstrapVersion
	next.UpdatedAt = m.now().UnixMilli()
	if err := m.save(next); err != nil {
		return nil, err
	}

	m.step(StepBootstrap)
	m.event(log, audit.EventBootstrap, next, fmt.Sprintf("version=%d", BootstrapVersion))
	return &next, nil
}

// Destroy removes the environment recorded under projectID, or under the
// Manager's project when projectID is empty. It returns nil when nothing
// was recorded.
func (m *Manager) Destroy(ctx context.Context, projectID string) (*devenv.Record, error) {
	if projectID == "" {
		projectID = m.context("").ProjectID
	}
	log := m.log.With("projectId", projectID)

	rec, ok, err := m.store.Record(projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Debug("no dev environment to destroy")
		return nil, nil
	}

	provider, err := m.providers.Get(rec.Provider)
	if err != nil {
		return nil, err
	}
	if err := provider.Destroy(ctx, rec.ID); err != nil {
		m.event(log, audit.EventError, rec, "destroy: "+err.Error())
		return nil, err
	}

	_, err = m.store.Update(func(st *devenv.State) bool {
		_, hadEnv := st.Envs[projectID]
		_, hadRoute := st.Routes[projectID]
		delete(st.Envs, projectID)
		delete(st.Routes, projectID)
		return hadEnv || hadRoute
	})
	if err != nil {
		return nil, err
	}

	log.Info("destroyed dev environment", "container", rec.ID)
	m.step(StepDestroy)
	m.event(log, audit.EventDestroy, rec, "")
	return &rec, nil
}

// ResolveProxyTarget returns the current address of port inside rec's container.
func (m *Manager) ResolveProxyTarget(ctx context.Context, rec devenv.Record, port int) (runtime.ProxyTarget, error) {
	provider, err := m.providers.Get(rec.Provider)
	if err != nil {
		return runtime.ProxyTarget{}, err
	}
	return provider.ResolveProxyTarget(ctx, rec, port)
}

// scratchPaths returns container paths to back with tmpfs for a tree.
func (m *Manager) scratchPaths(worktree string) []string {
	if worktree == "" {
		return nil
	}
	for _, name := range nextConfigFiles {
		if m.fs.Exists(filepath.Join(worktree, name)) {
			return []string{filepath.Join(worktree, ".next")}
		}
	}
	return nil
}

func (m *Manager) save(rec devenv.Record) error {
	_, err := m.store.UpsertRecord(rec)
	return err
}

func (m *Manager) step(step string) {
	if m.steps != nil {
		m.steps.Step(step)
	}
}

// event records a lifecycle event. Failing to write the audit log does not
// fail the operation.
func (m *Manager) event(log *slog.Logger, eventType audit.EventType, rec devenv.Record, details string) {
	if m.events == nil {
		return
	}
	err := m.events.Log(audit.Event{
		Timestamp: m.now(),
		Type:      eventType,
		ProjectID: rec.ProjectID,
		Container: rec.ID,
		Details:   details,
	})
	if err != nil {
		log.Warn("failed to write audit event", "type", eventType, "error", err)
	}
}
