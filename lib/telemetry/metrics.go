// Package telemetry records render metrics with Prometheus and traces
// renders with OpenTelemetry.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Render kinds used as the "kind" label.
const (
	KindPage      = "page"
	KindUpdate    = "update"
	KindComponent = "component"
)

// Render outcomes used as the "status" label.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "hxview").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
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

// WithBuckets sets the histogram buckets.
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
		Namespace: "hxview",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the render collectors. A nil *Metrics records nothing.
type Metrics struct {
	renders    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	suppressed prometheus.Counter
	components *prometheus.CounterVec
}

// NewMetrics creates and registers the render collectors.
//
// Metrics collected:
//   - hxview_renders_total: renders by kind and status
//   - hxview_render_duration_seconds: render duration by kind
//   - hxview_suppressed_nodes_total: subtrees replaced by the unchanged placeholder
//   - hxview_component_renders_total: component renders by component and whether output changed
//
// Registering twice on the same registry panics, like any promauto collector.
func NewMetrics(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of renders",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "status"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		suppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "suppressed_nodes_total",
			Help:        "Total number of subtrees replaced by the unchanged placeholder",
			ConstLabels: config.ConstLabels,
		}),

		components: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_renders_total",
			Help:        "Total number of component instance renders",
			ConstLabels: config.ConstLabels,
		}, []string{"component", "changed"}),
	}
}

// ObserveRender records one finished render.
func (m *Metrics) ObserveRender(kind string, err error, d time.Duration, suppressed int) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.renders.WithLabelValues(kind, status).Inc()
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
	if suppressed > 0 {
		m.suppressed.Add(float64(suppressed))
	}
}

// ObserveComponent records one component instance render.
func (m *Metrics) ObserveComponent(component string, changed bool) {
	if m == nil {
		return
	}
	label := "false"
	if changed {
		label = "true"
	}
	m.components.WithLabelValues(component, label).Inc()
}
