package lifecycle

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	deverrors "github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/state"
)

type stepCounter map[string]int

func (s stepCounter) Step(step string) { s[step]++ }

type fixture struct {
	t        *testing.T
	home     string
	worktree string
	paths    *config.Paths
	provider *runtime.MockProvider
	store    *state.Store
	events   *audit.Logger
	steps    stepCounter
	mgr      *Manager
}

func newFixture(t *testing.T, rawID string) *fixture {
	t.Helper()

	home := t.TempDir()
	worktree := filepath.Join(home, "app")
	if err := os.MkdirAll(worktree, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	paths := config.PathsFor(home)
	f := &fixture{
		t:        t,
		home:     home,
		worktree: worktree,
		paths:    paths,
		provider: runtime.NewMockProvider(),
		store:    state.NewStore(paths.StateFile, nil),
		events:   audit.NewLogger(paths.EventsDir, nil),
		steps:    stepCounter{},
	}
	f.mgr = f.manager(rawID, worktree)
	return f
}

func (f *fixture) manager(rawID, worktree string) *Manager {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return New(rawID, worktree, Options{
		Store:     f.store,
		Providers: runtime.NewRegistry(f.provider),
		Config:    config.NewLoader(f.paths, nil),
		Events:    f.events,
		Steps:     f.steps,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
}

func (f *fixture) seed(rec devenv.Record) {
	f.t.Helper()
	if _, err := f.store.UpsertRecord(rec); err != nil {
		f.t.Fatalf("seed: %v", err)
	}
}

func (f *fixture) record(projectID string) (devenv.Record, bool) {
	f.t.Helper()
	rec, ok, err := f.store.Record(projectID)
	if err != nil {
		f.t.Fatalf("Record: %v", err)
	}
	return rec, ok
}

func (f *fixture) writeProjectConfig(body string) {
	f.t.Helper()
	dir := filepath.Join(f.worktree, ".opencode")
	if err := os.MkdirAll(dir, 0755); err != nil {
		f.t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "devenv.json"), []byte(body), 0644); err != nil {
		f.t.Fatalf("WriteFile: %v", err)
	}
}

func pathID(worktree string) string {
	sum := sha1.Sum([]byte(worktree))
	return "path-" + hex.EncodeToString(sum[:])
}

func TestEnsure_FirstCallProvisions(t *testing.T) {
	f := newFixture(t, "global")

	rec, err := f.mgr.Ensure(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	wantID := pathID(f.worktree)
	if rec.ProjectID != wantID {
		t.Errorf("ProjectID = %q, want %q", rec.ProjectID, wantID)
	}
	if rec.ID != "opencode-app" {
		t.Errorf("ID = %q, want opencode-app", rec.ID)
	}
	if rec.ProjectName != "app" {
		t.Errorf("ProjectName = %q, want app", rec.ProjectName)
	}
	if rec.Status != devenv.StatusRunning {
		t.Errorf("Status = %q, want running", rec.Status)
	}
	if rec.IP != "172.17.0.2" {
		t.Errorf("IP = %q, want 172.17.0.2", rec.IP)
	}
	if rec.Distro != config.DefaultDistro {
		t.Errorf("Distro = %q, want %q", rec.Distro, config.DefaultDistro)
	}
	if !rec.Bootstrapped || rec.BootstrapVersion != BootstrapVersion {
		t.Errorf("bootstrap = %v/%d, want true/%d", rec.Bootstrapped, rec.BootstrapVersion, BootstrapVersion)
	}
	if rec.CreatedAt == 0 || rec.UpdatedAt < rec.CreatedAt {
		t.Errorf("timestamps = %d/%d", rec.CreatedAt, rec.UpdatedAt)
	}

	stored, ok := f.record(wantID)
	if !ok {
		t.Fatal("record not persisted")
	}
	if !reflect.DeepEqual(stored, *rec) {
		t.Errorf("stored = %+v\nreturned %+v", stored, *rec)
	}

	calls := f.provider.GetCallsFor("Create")
	if len(calls) != 1 {
		t.Fatalf("Create calls = %d, want 1", len(calls))
	}
	input := calls[0].Args[0].(runtime.CreateInput)
	if input.Name != "opencode-app" || input.Worktree != f.worktree || len(input.TmpfsPaths) != 0 {
		t.Errorf("create input = %+v", input)
	}
}

func TestEnsure_Idempotent(t *testing.T) {
	f := newFixture(t, "global")
	ctx := context.Background()

	first, err := f.mgr.Ensure(ctx, nil)
	if err != nil {
		t.Fatalf("first Ensure: %v", err)
	}

	f.provider.ClearCalls()
	for i := 0; i < 3; i++ {
		next, err := f.mgr.Ensure(ctx, nil)
		if err != nil {
			t.Fatalf("Ensure %d: %v", i, err)
		}
		a, b := *first, *next
		a.UpdatedAt, b.UpdatedAt = 0, 0
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Ensure %d = %+v\nwant %+v", i, b, a)
		}
	}

	calls := f.provider.GetCalls()
	if len(calls) != 3 {
		t.Fatalf("provider calls = %v, want 3 inspections", calls)
	}
	for _, c := range calls {
		if c.Method != "Info" {
			t.Errorf("unexpected provider call %s", c.Method)
		}
	}
	if f.steps[StepProvision] != 1 || f.steps[StepBootstrap] != 1 {
		t.Errorf("steps = %v", f.steps)
	}
}

func TestEnsure_RelativeWorktreeSharesIdentity(t *testing.T) {
	f := newFixture(t, "global")
	ctx := context.Background()

	first, err := f.mgr.Ensure(ctx, nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	testChdir(t, f.worktree)
	for _, spelling := range []string{".", f.worktree + "/", "../app"} {
		rec, err := f.manager("global", spelling).Ensure(ctx, nil)
		if err != nil {
			t.Fatalf("Ensure(%q): %v", spelling, err)
		}
		if rec.ProjectID != first.ProjectID {
			t.Errorf("Ensure(%q) ProjectID = %q, want %q", spelling, rec.ProjectID, first.ProjectID)
		}
		if rec.ID != "opencode-app" || rec.ProjectName != "app" || rec.Worktree != f.worktree {
			t.Errorf("Ensure(%q) = id %q, name %q, worktree %q", spelling, rec.ID, rec.ProjectName, rec.Worktree)
		}
	}

	other, err := f.mgr.EnsureForWorkdir(ctx, ".", nil)
	if err != nil {
		t.Fatalf("EnsureForWorkdir: %v", err)
	}
	if other.ProjectID != first.ProjectID {
		t.Errorf("EnsureForWorkdir ProjectID = %q, want %q", other.ProjectID, first.ProjectID)
	}

	if calls := f.provider.GetCallsFor("Create"); len(calls) != 1 {
		t.Errorf("Create calls = %d, want 1", len(calls))
	}
	st, err := f.store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Envs) != 1 {
		t.Errorf("records = %d, want 1", len(st.Envs))
	}
}

func TestEnsure_RenamesDriftedContainer(t *testing.T) {
	f := newFixture(t, "global")
	id := pathID(f.worktree)
	f.provider.AddContainer("opencode-old", devenv.StatusRunning, "172.17.0.9")
	f.seed(devenv.Record{
		ID: "opencode-old", ProjectID: id, ProjectName: "app", Worktree: f.worktree,
		Provider: devenv.ProviderDocker, Status: devenv.StatusRunning,
		Bootstrapped: true, BootstrapVersion: BootstrapVersion,
	})

	rec, err := f.mgr.Ensure(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	renames := f.provider.GetCallsFor("Rename")
	if len(renames) != 1 {
		t.Fatalf("Rename calls = %d, want 1", len(renames))
	}
	if renames[0].Args[0] != "opencode-old" || renames[0].Args[1] != "opencode-app" {
		t.Errorf("rename args = %v", renames[0].Args)
	}
	if rec.ID != "opencode-app" {
		t.Errorf("ID = %q, want opencode-app", rec.ID)
	}
	if stored, _ := f.record(id); stored.ID != "opencode-app" {
		t.Errorf("stored ID = %q, want opencode-app", stored.ID)
	}
	if len(f.provider.GetCallsFor("Create")) != 0 || len(f.provider.GetCallsFor("Bootstrap")) != 0 {
		t.Error("healthy renamed env should not be provisioned or bootstrapped")
	}
}

func TestEnsure_ExplicitMachineName(t *testing.T) {
	f := newFixture(t, "proj-1")

	rec, err := f.mgr.Ensure(context.Background(), &config.Config{MachineName: "custom-box"})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if rec.ID != "custom-box" {
		t.Errorf("ID = %q, want custom-box", rec.ID)
	}
	if rec.ProjectID != "proj-1" {
		t.Errorf("ProjectID = %q, want host id unchanged", rec.ProjectID)
	}

	f.provider.ClearCalls()
	if _, err := f.mgr.Ensure(context.Background(), &config.Config{MachineName: "custom-box"}); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if len(f.provider.GetCallsFor("Rename")) != 0 {
		t.Error("explicit name should not be renamed back")
	}
}

func TestEnsure_ProjectConfigMachineName(t *testing.T) {
	f := newFixture(t, "global")
	f.writeProjectConfig(`{
		// pinned name
		"machineName": "pinned",
		"distro": "ubuntu:24.04",
	}`)

	rec, err := f.mgr.Ensure(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if rec.ID != "pinned" {
		t.Errorf("ID = %q, want pinned", rec.ID)
	}
	input := f.provider.GetCallsFor("Create")[0].Args[0].(runtime.CreateInput)
	if input.Distro != "ubuntu:24.04" {
		t.Errorf("Distro = %q, want ubuntu:24.04", input.Distro)
	}

	// Overrides win over the project file.
	f.provider.ClearCalls()
	rec, err = f.mgr.Ensure(context.Background(), &config.Config{MachineName: "override"})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if rec.ID != "override" || len(f.provider.GetCallsFor("Rename")) != 1 {
		t.Errorf("ID = %q, renames = %d", rec.ID, len(f.provider.GetCallsFor("Rename")))
	}
}

func TestEnsure_InvalidOverride(t *testing.T) {
	f := newFixture(t, "global")

	_, err := f.mgr.Ensure(context.Background(), &config.Config{MachineName: "Bad Name"})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := deverrors.GetExitCode(err); code != deverrors.ExitConfigError {
		t.Errorf("exit code = %d, want %d", code, deverrors.ExitConfigError)
	}
	if len(f.provider.GetCalls()) != 0 {
		t.Error("invalid overrides should fail before any provider call")
	}
}

func TestEnsure_BootstrapSelfHealing(t *testing.T) {
	f := newFixture(t, "global")
	id := pathID(f.worktree)
	f.provider.AddContainer("opencode-app", devenv.StatusRunning, "172.17.0.4")
	f.seed(devenv.Record{
		ID: "opencode-app", ProjectID: id, Worktree: f.worktree,
		Provider: devenv.ProviderDocker, Status: devenv.StatusRunning,
		Bootstrapped: true, BootstrapVersion: BootstrapVersion - 1,
	})

	rec, err := f.mgr.Ensure(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if n := len(f.provider.GetCallsFor("Bootstrap")); n != 1 {
		t.Errorf("Bootstrap calls = %d, want 1", n)
	}
	if rec.BootstrapVersion != BootstrapVersion {
		t.Errorf("BootstrapVersion = %d, want %d", rec.BootstrapVersion, BootstrapVersion)
	}
	if stored, _ := f.record(id); stored.BootstrapVersion != BootstrapVersion {
		t.Errorf("stored BootstrapVersion = %d", stored.BootstrapVersion)
	}
	if rec.ProjectName != "app" {
		t.Errorf("ProjectName = %q, want it filled from the context", rec.ProjectName)
	}
}

func TestEnsure_BootstrapFailureRetried(t *testing.T) {
	f := newFixture(t, "global")
	id := pathID(f.worktree)
	f.provider.SetError("Bootstrap", deverrors.BootstrapFailed("opencode-app", "bun/node not found in PATH."))

	_, err := f.mgr.Ensure(context.Background(), nil)
	if err == nil {
		t.Fatal("expected bootstrap error")
	}
	if code := deverrors.GetExitCode(err); code != deverrors.ExitProvisionFailed {
		t.Errorf("exit code = %d, want %d", code, deverrors.ExitProvisionFailed)
	}

	stored, ok := f.record(id)
	if !ok {
		t.Fatal("provisioned record should be kept")
	}
	if stored.Bootstrapped || stored.BootstrapVersion != 0 {
		t.Errorf("stored bootstrap = %v/%d, want false/0", stored.Bootstrapped, stored.BootstrapVersion)
	}

	f.provider.SetError("Bootstrap", nil)
	f.provider.ClearCalls()
	rec, err := f.mgr.Ensure(context.Background(), nil)
	if err != nil {
		t.Fatalf("retry Ensure: %v", err)
	}
	if rec.BootstrapVersion != BootstrapVersion {
		t.Errorf("BootstrapVersion = %d after retry", rec.BootstrapVersion)
	}
	if len(f.provider.GetCallsFor("Create")) != 0 {
		t.Error("retry should not recreate the container")
	}
}

func TestEnsure_ReprovisionsMissingContainer(t *testing.T) {
	f := newFixture(t, "global")
	ctx := context.Background()

	first, err := f.mgr.Ensure(ctx, nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	f.provider.RemoveContainer(first.ID)
	f.provider.ClearCalls()

	rec, err := f.mgr.Ensure(ctx, nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if len(f.provider.GetCallsFor("Create")) != 1 {
		t.Error("missing container should be provisioned again")
	}
	if len(f.provider.GetCallsFor("Bootstrap")) != 1 {
		t.Error("a new container must be bootstrapped again")
	}
	if rec.Status != devenv.StatusRunning {
		t.Errorf("Status = %q, want running", rec.Status)
	}
	if rec.CreatedAt != first.CreatedAt {
		t.Errorf("CreatedAt changed from %d to %d", first.CreatedAt, rec.CreatedAt)
	}
}

func TestEnsure_Disabled(t *testing.T) {
	f := newFixture(t, "global")
	f.writeProjectConfig(`{"enabled": false}`)

	_, err := f.mgr.Ensure(context.Background(), nil)
	if err == nil {
		t.Fatal("expected disabled error")
	}
	if code := deverrors.GetExitCode(err); code != deverrors.ExitDisabled {
		t.Errorf("exit code = %d, want %d", code, deverrors.ExitDisabled)
	}
	if err.Error() != "Dev environment is disabled for this project." {
		t.Errorf("error = %q", err.Error())
	}
	if len(f.provider.GetCalls()) != 0 {
		t.Error("disabled project should not touch the provider")
	}
}

func TestEnsure_ProviderUnavailable(t *testing.T) {
	f := newFixture(t, "global")
	f.provider.AvailableValue = false

	_, err := f.mgr.Ensure(context.Background(), nil)
	if code := deverrors.GetExitCode(err); code != deverrors.ExitProviderUnavailable {
		t.Errorf("exit code = %d, want %d (err %v)", code, deverrors.ExitProviderUnavailable, err)
	}
	if _, ok := f.record(pathID(f.worktree)); ok {
		t.Error("no record should be written when the provider is unavailable")
	}
}

func TestEnsure_UnsupportedProvider(t *testing.T) {
	f := newFixture(t, "global")
	f.writeProjectConfig(`{"provider": "lima"}`)

	_, err := f.mgr.Ensure(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	want := "Provider 'lima' is not supported. Only 'docker' is available."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestEnsure_CreateFailureLeavesProvisioningRecord(t *testing.T) {
	f := newFixture(t, "global")
	f.provider.SetError("Create", deverrors.ProvisionFailed("Failed to create Docker container 'opencode-app': pull access denied"))

	_, err := f.mgr.Ensure(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}

	stored, ok := f.record(pathID(f.worktree))
	if !ok {
		t.Fatal("pending record should be stored before create")
	}
	if stored.Status != devenv.StatusProvisioning {
		t.Errorf("Status = %q, want provisioning", stored.Status)
	}

	events, _ := f.events.Events(stored.ProjectID)
	if len(events) != 1 || events[0].Type != audit.EventError {
		t.Errorf("events = %+v, want one error event", events)
	}
}

func TestEnsure_ScratchPaths(t *testing.T) {
	f := newFixture(t, "global")
	if err := os.WriteFile(filepath.Join(f.worktree, "next.config.mjs"), []byte("export default {}\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := f.mgr.Ensure(context.Background(), nil); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	input := f.provider.GetCallsFor("Create")[0].Args[0].(runtime.CreateInput)
	want := []string{filepath.Join(f.worktree, ".next")}
	if !reflect.DeepEqual(input.TmpfsPaths, want) {
		t.Errorf("TmpfsPaths = %v, want %v", input.TmpfsPaths, want)
	}
}

func TestEnsure_Events(t *testing.T) {
	f := newFixture(t, "global")

	rec, err := f.mgr.Ensure(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	events, err := f.events.Events(rec.ProjectID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	var types []audit.EventType
	for _, e := range events {
		types = append(types, e.Type)
		if e.Container != "opencode-app" {
			t.Errorf("event container = %q", e.Container)
		}
	}
	want := []audit.EventType{audit.EventProvision, audit.EventBootstrap}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("event types = %v, want %v", types, want)
	}
}

func TestEnsureForWorkdir(t *testing.T) {
	f := newFixture(t, "global")
	other := filepath.Join(f.home, "Other Site")
	if err := os.MkdirAll(other, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if _, err := f.mgr.EnsureForWorkdir(context.Background(), "", nil); err == nil {
		t.Error("expected error for empty workdir")
	}

	a, err := f.mgr.Ensure(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	b, err := f.mgr.EnsureForWorkdir(context.Background(), other, nil)
	if err != nil {
		t.Fatalf("EnsureForWorkdir: %v", err)
	}

	if a.ProjectID == b.ProjectID {
		t.Error("different worktrees under the global id must not share an environment")
	}
	if b.ID != "opencode-other-site" {
		t.Errorf("ID = %q, want opencode-other-site", b.ID)
	}

	records, err := f.mgr.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("List len = %d, want 2", len(records))
	}
	if records[0].ProjectID > records[1].ProjectID {
		t.Error("List should be sorted by project id")
	}
}

func TestStatus_NoRecord(t *testing.T) {
	f := newFixture(t, "global")

	rec, err := f.mgr.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if rec != nil {
		t.Errorf("Status() = %+v, want nil", rec)
	}
}

func TestStatus_MissingOnInspect(t *testing.T) {
	f := newFixture(t, "global")
	id := pathID(f.worktree)
	f.seed(devenv.Record{
		ID: "opencode-app", ProjectID: id, ProjectName: "app", Worktree: f.worktree,
		Provider: devenv.ProviderDocker, Status: devenv.StatusRunning,
		IP: "172.17.0.8", Distro: "ubuntu:22.04", BootstrapVersion: BootstrapVersion,
	})

	rec, err := f.mgr.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if rec.Status != devenv.StatusMissing {
		t.Errorf("Status = %q, want missing", rec.Status)
	}
	if rec.IP != "172.17.0.8" || rec.Distro != "ubuntu:22.04" {
		t.Errorf("ip/distro = %q/%q, want untouched", rec.IP, rec.Distro)
	}
	if stored, _ := f.record(id); stored.Status != devenv.StatusMissing {
		t.Errorf("stored Status = %q", stored.Status)
	}
	if f.steps[StepMissing] != 1 {
		t.Errorf("steps = %v", f.steps)
	}
}

func TestStatus_RefreshesFromProvider(t *testing.T) {
	f := newFixture(t, "global")
	id := pathID(f.worktree)
	f.provider.AddContainer("opencode-app", devenv.StatusStopped, "10.1.0.5")
	f.seed(devenv.Record{
		ID: "opencode-app", ProjectID: id, Worktree: f.worktree,
		Provider: devenv.ProviderDocker, Status: devenv.StatusRunning, IP: "172.17.0.2",
	})

	rec, err := f.mgr.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if rec.Status != devenv.StatusStopped || rec.IP != "10.1.0.5" || rec.Distro != "mock:latest" {
		t.Errorf("record = %+v", rec)
	}
}

func TestStatus_UnsupportedRecordProvider(t *testing.T) {
	f := newFixture(t, "global")
	f.seed(devenv.Record{ID: "x", ProjectID: pathID(f.worktree), Worktree: f.worktree, Provider: "lima"})

	_, err := f.mgr.Status(context.Background())
	if code := deverrors.GetExitCode(err); code != deverrors.ExitConfigError {
		t.Errorf("exit code = %d, want %d (err %v)", code, deverrors.ExitConfigError, err)
	}
}

func TestStatus_MigratesLegacyRecord(t *testing.T) {
	f := newFixture(t, "global")
	f.provider.AddContainer("opencode-app", devenv.StatusRunning, "172.17.0.2")
	f.seed(devenv.Record{
		ID: "opencode-app", ProjectID: "global", Worktree: f.worktree,
		Provider: devenv.ProviderDocker, Status: devenv.StatusRunning,
		BootstrapVersion: BootstrapVersion,
	})
	if _, err := f.store.UpsertRoute(devenv.RouteRecord{ProjectID: "global", EnvID: "opencode-app", Domain: "app.localhost"}); err != nil {
		t.Fatalf("UpsertRoute: %v", err)
	}

	rec, err := f.mgr.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	want := pathID(f.worktree)
	if rec == nil || rec.ProjectID != want {
		t.Fatalf("Status() = %+v, want record migrated to %s", rec, want)
	}
	if rec.ProjectName != "app" {
		t.Errorf("ProjectName = %q, want app", rec.ProjectName)
	}

	st, err := f.store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := st.Envs["global"]; ok {
		t.Error("legacy key should be removed")
	}
	if _, ok := st.Envs[want]; !ok {
		t.Error("record should be stored under the canonical id")
	}
	if route, ok := st.Routes[want]; !ok || route.ProjectID != want {
		t.Errorf("route should move with the record, got %+v", st.Routes)
	}

	events, _ := f.events.Events(want)
	if len(events) != 1 || events[0].Type != audit.EventMigrate || events[0].Details != "from=global" {
		t.Errorf("events = %+v", events)
	}
}

func TestStatus_IgnoresLegacyRecordFromOtherWorktree(t *testing.T) {
	f := newFixture(t, "global")
	legacy := devenv.Record{
		ID: "opencode-other", ProjectID: "global", Worktree: "/srv/other",
		Provider: devenv.ProviderDocker, Status: devenv.StatusRunning,
	}
	f.seed(legacy)

	rec, err := f.mgr.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if rec != nil {
		t.Errorf("Status() = %+v, want nil", rec)
	}
	if stored, ok := f.record("global"); !ok || !reflect.DeepEqual(stored, legacy) {
		t.Error("unrelated legacy record must be left alone")
	}

	// Ensure proceeds as if nothing were recorded.
	ensured, err := f.mgr.Ensure(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if ensured.ProjectID != pathID(f.worktree) || len(f.provider.GetCallsFor("Create")) != 1 {
		t.Errorf("Ensure = %+v", ensured)
	}
}

func TestStatus_GlobalWorktreeIsNotLegacy(t *testing.T) {
	f := newFixture(t, "global")
	mgr := f.manager("global", "/")
	f.provider.AddContainer("opencode-global", devenv.StatusRunning, "172.17.0.2")
	f.seed(devenv.Record{ID: "opencode-global", ProjectID: "global", Worktree: "/", Provider: devenv.ProviderDocker})

	rec, err := mgr.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if rec == nil || rec.ProjectID != "global" || rec.Status != devenv.StatusRunning {
		t.Errorf("Status() = %+v", rec)
	}
	if rec != nil && rec.ProjectName != "global" {
		t.Errorf("ProjectName = %q, want global", rec.ProjectName)
	}
}

func TestDestroy_Idempotent(t *testing.T) {
	f := newFixture(t, "global")
	ctx := context.Background()

	created, err := f.mgr.Ensure(ctx, nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if _, err := f.store.UpsertRoute(devenv.RouteRecord{ProjectID: created.ProjectID, EnvID: created.ID}); err != nil {
		t.Fatalf("UpsertRoute: %v", err)
	}

	first, err := f.mgr.Destroy(ctx, "")
	if err != nil {
		t.Fatalf("first Destroy: %v", err)
	}
	if first == nil || first.ID != created.ID {
		t.Fatalf("first Destroy = %+v, want the record", first)
	}
	if f.provider.HasContainer(created.ID) {
		t.Error("container should be removed")
	}

	second, err := f.mgr.Destroy(ctx, "")
	if err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
	if second != nil {
		t.Errorf("second Destroy = %+v, want nil", second)
	}

	st, _ := f.store.Load()
	if len(st.Envs) != 0 || len(st.Routes) != 0 {
		t.Errorf("state after destroy = %+v", st)
	}
	if n := len(f.provider.GetCallsFor("Destroy")); n != 1 {
		t.Errorf("Destroy calls = %d, want 1", n)
	}
}

func TestDestroy_OtherProject(t *testing.T) {
	f := newFixture(t, "global")
	f.seed(devenv.Record{ID: "opencode-x", ProjectID: "proj-x", Provider: devenv.ProviderDocker})

	rec, err := f.mgr.Destroy(context.Background(), "proj-x")
	if err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if rec == nil || rec.ID != "opencode-x" {
		t.Errorf("Destroy = %+v", rec)
	}
}

func TestDestroy_ProviderError(t *testing.T) {
	f := newFixture(t, "global")
	f.seed(devenv.Record{ID: "opencode-x", ProjectID: "proj-x", Provider: devenv.ProviderDocker})
	f.provider.SetError("Destroy", errors.New("permission denied"))

	if _, err := f.mgr.Destroy(context.Background(), "proj-x"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := f.record("proj-x"); !ok {
		t.Error("record should be kept when the container could not be removed")
	}
}

func TestResolveProxyTarget(t *testing.T) {
	f := newFixture(t, "global")
	ctx := context.Background()

	rec, err := f.mgr.Ensure(ctx, nil)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	target, err := f.mgr.ResolveProxyTarget(ctx, *rec, 3000)
	if err != nil {
		t.Fatalf("ResolveProxyTarget: %v", err)
	}
	if target.Host != rec.IP || target.Port != 3000 {
		t.Errorf("target = %+v", target)
	}

	f.provider.RemoveContainer(rec.ID)
	if _, err := f.mgr.ResolveProxyTarget(ctx, *rec, 3000); err == nil {
		t.Error("expected error when the container has no address")
	}
}

func TestProjectInfo(t *testing.T) {
	f := newFixture(t, "global")
	info := f.mgr.ProjectInfo()

	if info.ProjectID != pathID(f.worktree) || info.ProjectName != "app" || info.Worktree != f.worktree {
		t.Errorf("ProjectInfo() = %+v", info)
	}
}

func TestNew_Defaults(t *testing.T) {
	m := New("p", "/w", Options{})
	if m.fs == nil || m.now == nil || m.log == nil {
		t.Error("New should fill in default collaborators")
	}
}
