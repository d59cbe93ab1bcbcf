package middleware

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/waypoint/pkg/router"
)

const defaultTracerName = "waypoint"

// OTelConfig configures tracing.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "waypoint").
	TracerName string

	// Filter determines which navigations to trace. If nil, all are.
	Filter func(req *router.Request) bool

	// AttributeExtractor adds custom attributes to navigation spans.
	AttributeExtractor func(req *router.Request) []attribute.KeyValue

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider
}

// OTelOption configures tracing.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithNavigationFilter sets a filter for traced navigations.
func WithNavigationFilter(filter func(req *router.Request) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(req *router.Request) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// WithTracerProvider uses tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

func (c OTelConfig) tracer() trace.Tracer {
	if c.TracerProvider != nil {
		return c.TracerProvider.Tracer(c.TracerName)
	}
	return otel.Tracer(c.TracerName)
}

func otelConfig(opts []OTelOption) OTelConfig {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// Tracing returns a hook that wraps the rest of the chain in a span.
//
// The span records the target and previous paths, the route, the redirect
// count, and whether the navigation replays history. Hook errors and
// redirects are recorded on the span.
func Tracing(opts ...OTelOption) router.Hook {
	config := otelConfig(opts)
	tracer := config.tracer()

	return router.HookFunc(func(ctx context.Context, req *router.Request, next func() error) error {
		if config.Filter != nil && !config.Filter(req) {
			return next()
		}

		route := routeLabel(req.Route)
		attrs := []attribute.KeyValue{
			attribute.String("waypoint.path", req.TargetPath),
			attribute.String("waypoint.previous_path", req.PreviousPath),
			attribute.String("waypoint.route", route),
			attribute.Int("waypoint.redirects", req.Redirects),
			attribute.Bool("waypoint.history", req.SavedScroll != nil),
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(req)...)
		}

		_, span := tracer.Start(ctx, "waypoint.navigate "+route,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		err := next()

		var redirect *router.RedirectError
		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case errors.As(err, &redirect):
			span.SetAttributes(attribute.String("waypoint.redirect_to", redirect.To))
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	})
}

// TraceLoader wraps l so that each call to Load runs in a span.
func TraceLoader(route string, l router.Loader, opts ...OTelOption) router.Loader {
	config := otelConfig(opts)
	tracer := config.tracer()

	return router.LoaderFunc(func(ctx context.Context) (router.Module, error) {
		ctx, span := tracer.Start(ctx, "waypoint.resolve "+route,
			trace.WithAttributes(attribute.String("waypoint.route", route)),
		)
		defer span.End()

		m, err := l.Load(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		span.SetStatus(codes.Ok, "")
		return m, nil
	})
}
