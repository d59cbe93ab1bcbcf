package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/waypoint/pkg/router"
)

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "waypoint").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "waypoint",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the router's Prometheus collectors. Create one per
// registry; registering twice on the same registry panics.
type Metrics struct {
	navigations        *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	hookDuration       *prometheus.HistogramVec
	resolutions        *prometheus.CounterVec
	resolveDuration    *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
//
// Metrics collected:
//   - waypoint_navigations_total: navigations by route and status
//     (committed, aborted, superseded, error)
//   - waypoint_navigation_duration_seconds: time from Navigate to result
//   - waypoint_hook_duration_seconds: time spent in hooks and commit
//   - waypoint_module_resolutions_total: module fetches by route and result
//   - waypoint_module_resolve_duration_seconds: module fetch duration
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by route and status",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "status"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		hookDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_duration_seconds",
			Help:        "Time spent in navigation hooks and commit",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "module_resolutions_total",
			Help:        "Total number of module fetches by route and result",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "result"}),

		resolveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "module_resolve_duration_seconds",
			Help:        "Module fetch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),
	}
}

// Hook returns a before-navigation hook that times the rest of the chain.
// Register it first so that it covers every later hook and the commit.
func (m *Metrics) Hook() router.Hook {
	return router.HookFunc(func(ctx context.Context, req *router.Request, next func() error) error {
		start := time.Now()
		err := next()
		m.hookDuration.WithLabelValues(routeLabel(req.Route)).Observe(time.Since(start).Seconds())
		return err
	})
}

// ObserveNavigation implements router.NavigationObserver.
func (m *Metrics) ObserveNavigation(res *router.Result, err error, d time.Duration) {
	route := "unknown"
	status := "error"
	var re *router.ResolutionError
	switch {
	case res != nil:
		route = routeLabel(res.Route)
		status = res.Status.String()
	case errors.As(err, &re):
		route = re.Route
	}
	m.navigations.WithLabelValues(route, status).Inc()
	m.navigationDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveResolve implements router.ResolveObserver.
func (m *Metrics) ObserveResolve(route string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = categorizeError(err)
	}
	m.resolutions.WithLabelValues(route, result).Inc()
	m.resolveDuration.WithLabelValues(route).Observe(d.Seconds())
}

func routeLabel(d *router.Descriptor) string {
	if d == nil {
		return "unknown"
	}
	return d.Name
}

// categorizeError keeps error labels low-cardinality.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, router.ErrNoLoader):
		return "no_loader"
	default:
		return "error"
	}
}
