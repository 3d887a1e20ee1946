// Package metrics exports update and integrity hook events as Prometheus
// metrics.
//
// Create the collectors on a registry and install them as the process hooks:
//
//	reg := prometheus.NewRegistry()
//	h, err := metrics.New(reg)
//	if err != nil {
//	    return err
//	}
//	h.Register()
//
// Feature labels carry feature names, so registries should be scoped to one
// model; the command line tool creates one per run.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cadseer/cadseer/pkg/observability"
)

const namespace = "cadseer"

// Outcome label values.
const (
	outcomeComplete    = "complete"
	outcomeInterrupted = "interrupted"
	outcomeOK          = "ok"
	outcomeFailed      = "failed"
)

// Hooks records recompute and integrity events. It implements
// [observability.UpdateHooks] and [observability.IntegrityHooks].
type Hooks struct {
	passes          *prometheus.CounterVec
	passDuration    prometheus.Histogram
	dirty           prometheus.Gauge
	updates         *prometheus.CounterVec
	featureDuration *prometheus.HistogramVec
	repairs         *prometheus.CounterVec
	unresolved      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Hooks, error) {
	h := &Hooks{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recompute",
			Name:      "passes_total",
			Help:      "Recompute passes by outcome (complete, interrupted).",
		}, []string{"outcome"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recompute",
			Name:      "duration_seconds",
			Help:      "Time taken by a recompute pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		dirty: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "recompute",
			Name:      "dirty_features",
			Help:      "Dirty active features at the start of the last pass.",
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feature",
			Name:      "updates_total",
			Help:      "Feature updates by feature and outcome (ok, failed).",
		}, []string{"feature", "outcome"}),
		featureDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feature",
			Name:      "update_duration_seconds",
			Help:      "Time taken by one feature update.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"feature"}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "repairs_total",
			Help:      "Shape ids repaired at the end of an update, by kind (nil, duplicate).",
		}, []string{"feature", "kind"}),
		unresolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "unresolved_picks_total",
			Help:      "Picks that resolved to nothing, by feature.",
		}, []string{"feature"}),
	}

	for _, c := range []prometheus.Collector{
		h.passes, h.passDuration, h.dirty, h.updates, h.featureDuration, h.repairs, h.unresolved,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Register installs h as both the update and the integrity hooks.
func (h *Hooks) Register() {
	observability.SetUpdateHooks(h)
	observability.SetIntegrityHooks(h)
}

func (h *Hooks) OnRecomputeStart(_ context.Context, dirty int) {
	h.dirty.Set(float64(dirty))
}

func (h *Hooks) OnRecomputeComplete(_ context.Context, _, _ int, d time.Duration, err error) {
	outcome := outcomeComplete
	if err != nil {
		outcome = outcomeInterrupted
	}
	h.passes.WithLabelValues(outcome).Inc()
	h.passDuration.Observe(d.Seconds())
}

func (h *Hooks) OnFeatureStart(context.Context, string, string) {}

func (h *Hooks) OnFeatureComplete(_ context.Context, name, _ string, d time.Duration, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeFailed
	}
	h.updates.WithLabelValues(name, outcome).Inc()
	h.featureDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (h *Hooks) OnNilRepaired(_ context.Context, feature string, count int) {
	h.repairs.WithLabelValues(feature, "nil").Add(float64(count))
}

func (h *Hooks) OnDuplicateRepaired(_ context.Context, feature string, count int) {
	h.repairs.WithLabelValues(feature, "duplicate").Add(float64(count))
}

func (h *Hooks) OnPickUnresolved(_ context.Context, feature, _ string) {
	h.unresolved.WithLabelValues(feature).Inc()
}

var (
	_ observability.UpdateHooks    = (*Hooks)(nil)
	_ observability.IntegrityHooks = (*Hooks)(nil)
)
