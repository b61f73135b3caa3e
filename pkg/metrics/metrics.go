// Package metrics exports reactive runtime activity as Prometheus metrics.
//
// A Collector implements reactive.Observer; install it with
// reactive.WithObserver:
//
//	reg := prometheus.NewRegistry()
//	col := metrics.New(metrics.WithRegistry(reg))
//	rt := reactive.NewRuntime(reactive.WithObserver(col))
//	http.Handle("/metrics", metrics.Handler(reg))
//
// Metrics collected (with the default "reactive" namespace):
//   - reactive_live_nodes{kind}: gauge of live nodes
//   - reactive_nodes_created_total{kind}: counter of created nodes
//   - reactive_nodes_disposed_total{kind}: counter of disposed nodes
//   - reactive_flushes_total: counter of flushes
//   - reactive_flush_duration_seconds: histogram of flush durations
//   - reactive_flush_runs: histogram of computation runs per flush
//   - reactive_flush_aborts_total: counter of flushes aborted by the budget
//   - reactive_skipped_runs_total: counter of queued effects found unchanged
//   - reactive_computation_runs_total{kind}: counter of effect and memo runs
//   - reactive_computation_duration_seconds{kind}: histogram of run durations
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "reactive").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: buckets from 10µs to about 1s.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "reactive",
		Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 9),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records runtime events. Its methods are safe for concurrent
// use, so one Collector can observe several runtimes.
type Collector struct {
	liveNodes     *prometheus.GaugeVec
	nodesCreated  *prometheus.CounterVec
	nodesDisposed *prometheus.CounterVec
	flushes       prometheus.Counter
	flushDuration prometheus.Histogram
	flushRuns     prometheus.Histogram
	flushAborts   prometheus.Counter
	skippedRuns   prometheus.Counter
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

var _ reactive.Observer = (*Collector)(nil)

// New creates a Collector and registers its metrics. Registering two
// collectors with the same namespace on one registry panics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		liveNodes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_nodes",
			Help:        "Number of live reactive nodes",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		nodesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_created_total",
			Help:        "Total number of reactive nodes created",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		nodesDisposed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_disposed_total",
			Help:        "Total number of reactive nodes disposed",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of queue flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Queue flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushRuns: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_runs",
			Help:        "Computation runs per flush",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16384
		}),

		flushAborts: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_aborts_total",
			Help:        "Total number of flushes aborted by the flush budget",
			ConstLabels: config.ConstLabels,
		}),

		skippedRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "skipped_runs_total",
			Help:        "Total number of queued effects whose dependencies turned out unchanged",
			ConstLabels: config.ConstLabels,
		}),

		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computation_runs_total",
			Help:        "Total number of effect and memo runs",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computation_duration_seconds",
			Help:        "Effect and memo run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),
	}
}

// NodeCreated implements reactive.Observer.
func (c *Collector) NodeCreated(_ reactive.NodeID, kind reactive.NodeKind) {
	c.liveNodes.WithLabelValues(kind.String()).Inc()
	c.nodesCreated.WithLabelValues(kind.String()).Inc()
}

// NodeDisposed implements reactive.Observer.
func (c *Collector) NodeDisposed(_ reactive.NodeID, kind reactive.NodeKind) {
	c.liveNodes.WithLabelValues(kind.String()).Dec()
	c.nodesDisposed.WithLabelValues(kind.String()).Inc()
}

// FlushStarted implements reactive.Observer.
func (c *Collector) FlushStarted(int) {}

// ComputationRan implements reactive.Observer.
func (c *Collector) ComputationRan(_ reactive.NodeID, kind reactive.NodeKind, elapsed time.Duration) {
	c.runs.WithLabelValues(kind.String()).Inc()
	c.runDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// FlushFinished implements reactive.Observer.
func (c *Collector) FlushFinished(stats reactive.FlushStats) {
	c.flushes.Inc()
	c.flushDuration.Observe(stats.Elapsed.Seconds())
	c.flushRuns.Observe(float64(stats.Runs))
	c.skippedRuns.Add(float64(stats.Skipped))
	if stats.Aborted {
		c.flushAborts.Inc()
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
// A nil g serves the default gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
