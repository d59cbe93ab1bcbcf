// Package middleware provides observability hooks for the waypoint router.
//
// # Prometheus Metrics
//
// Metrics records navigation outcomes, hook time, and module resolution:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("docs"))
//
//	loader := router.NewModuleLoader(router.WithResolveObserver(m.ObserveResolve))
//	engine := router.NewEngine(reg,
//	    router.WithModuleLoader(loader),
//	    router.WithHooks(m.Hook()),
//	    router.WithNavigationObserver(m.ObserveNavigation),
//	)
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry
//
// Tracing wraps the hook chain and commit in a span, and TraceLoader wraps
// a loader so that each fetch gets its own span:
//
//	engine := router.NewEngine(reg, router.WithHooks(middleware.Tracing()))
//
//	reg.MustRegister(router.Descriptor{
//	    Path:   "/feedback",
//	    Name:   "feedback",
//	    Loader: middleware.TraceLoader("feedback", fetcher.Loader("feedback")),
//	})
//
// The tracer comes from the global provider; configure it with
// otel.SetTracerProvider before navigating.
package middleware
