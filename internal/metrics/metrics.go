// Package metrics records provider calls and reconcile steps with Prometheus
// collectors on a private registry, and exports them as a textfile.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/runtime"
)

var histogramBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 300}

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder owns the collectors for one process.
type Recorder struct {
	registry      *prometheus.Registry
	providerCalls *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	steps         *prometheus.CounterVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devenv",
			Name:      "provider_calls_total",
			Help:      "Count of provider operations by outcome",
		}, []string{"op", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "devenv",
			Name:      "provider_call_duration_seconds",
			Help:      "Latency distribution of provider operations",
			Buckets:   histogramBuckets,
		}, []string{"op"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devenv",
			Name:      "reconcile_steps_total",
			Help:      "Number of reconcile steps taken",
		}, []string{"step"}),
	}
	r.registry.MustRegister(r.providerCalls, r.callDuration, r.steps)
	return r
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCall records one provider operation.
func (r *Recorder) ObserveCall(op string, err error, duration time.Duration) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.providerCalls.With(prometheus.Labels{"op": op, "outcome": outcome}).Inc()
	r.callDuration.With(prometheus.Labels{"op": op}).Observe(duration.Seconds())
}

// Step counts a reconcile step (provision, rename, bootstrap, migrate, refresh).
func (r *Recorder) Step(step string) {
	r.steps.With(prometheus.Labels{"step": step}).Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Instrument wraps p so every operation is recorded on r.
func Instrument(p runtime.Provider, r *Recorder) runtime.Provider {
	if r == nil {
		return p
	}
	return &instrumented{next: p, rec: r}
}

type instrumented struct {
	next runtime.Provider
	rec  *Recorder
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	i.rec.ObserveCall(op, err, time.Since(start))
}

func (i *instrumented) Kind() devenv.ProviderKind {
	return i.next.Kind()
}

func (i *instrumented) Available(ctx context.Context) bool {
	start := time.Now()
	ok := i.next.Available(ctx)
	outcome := OutcomeOK
	if !ok {
		outcome = "unavailable"
	}
	i.rec.providerCalls.With(prometheus.Labels{"op": "available", "outcome": outcome}).Inc()
	i.rec.callDuration.With(prometheus.Labels{"op": "available"}).Observe(time.Since(start).Seconds())
	return ok
}

func (i *instrumented) Info(ctx context.Context, name string) (*runtime.Info, error) {
	start := time.Now()
	info, err := i.next.Info(ctx, name)
	i.observe("info", start, err)
	return info, err
}

func (i *instrumented) Create(ctx context.Context, input runtime.CreateInput) (*runtime.Info, error) {
	start := time.Now()
	info, err := i.next.Create(ctx, input)
	i.observe("create", start, err)
	return info, err
}

func (i *instrumented) Rename(ctx context.Context, current, next string) error {
	start := time.Now()
	err := i.next.Rename(ctx, current, next)
	i.observe("rename", start, err)
	return err
}

func (i *instrumented) Bootstrap(ctx context.Context, name string) error {
	start := time.Now()
	err := i.next.Bootstrap(ctx, name)
	i.observe("bootstrap", start, err)
	return err
}

func (i *instrumented) Destroy(ctx context.Context, name string) error {
	start := time.Now()
	err := i.next.Destroy(ctx, name)
	i.observe("destroy", start, err)
	return err
}

func (i *instrumented) ResolveProxyTarget(ctx context.Context, record devenv.Record, port int) (runtime.ProxyTarget, error) {
	start := time.Now()
	target, err := i.next.ResolveProxyTarget(ctx, record, port)
	i.observe("resolve_proxy_target", start, err)
	return target, err
}
