package dev

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/pkg/assets"
	"github.com/vango-dev/waypoint/pkg/host"
	"github.com/vango-dev/waypoint/pkg/loader"
	"github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/router"
)

// ErrNotLoaded is returned when navigating before the first successful
// build.
var ErrNotLoaded = errors.New("preview has no build loaded")

// Preview drives a navigation engine over the current build output and
// forwards its side effects to connected browsers.
type Preview struct {
	appName string
	host    *host.Broadcast
	metrics *middleware.Metrics
	logger  *slog.Logger

	mu      sync.RWMutex
	engine  *router.Engine
	fetcher *loader.Fetcher
	routes  []RouteInfo
}

// RouteInfo describes one route of the loaded build.
type RouteInfo struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Redirect    string   `json:"redirect,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Units       []string `json:"units,omitempty"`
}

// NavigationResult is the JSON form of a router.Result.
type NavigationResult struct {
	RequestedPath string          `json:"requestedPath"`
	Path          string          `json:"path"`
	Route         string          `json:"route,omitempty"`
	Status        string          `json:"status"`
	Scroll        router.Position `json:"scroll"`
	Redirects     int             `json:"redirects"`
	Bytes         int64           `json:"bytes,omitempty"`
}

// NewPreview creates a preview that reports to b and metrics.
func NewPreview(appName string, b *host.Broadcast, metrics *middleware.Metrics, logger *slog.Logger) *Preview {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preview{
		appName: appName,
		host:    b,
		metrics: metrics,
		logger:  logger.With("component", "preview"),
	}
}

// Load replaces the engine with one over the build in outputDir. The
// current path, if any, is navigated to again on the new engine.
func (p *Preview) Load(ctx context.Context, outputDir string, table *config.RouteTable) error {
	index, err := assets.LoadUnits(filepath.Join(outputDir, "units.json"))
	if err != nil {
		return err
	}
	fetcher, err := loader.NewFetcher(index, loader.NewFSSource(os.DirFS(outputDir)),
		loader.WithLogger(p.logger))
	if err != nil {
		return err
	}
	reg, err := table.Registry(func(e config.RouteEntry) router.Loader {
		return middleware.TraceLoader(e.Name, fetcher.Loader(e.Name))
	})
	if err != nil {
		return err
	}

	engine := router.NewEngine(reg,
		router.WithHost(p.host),
		router.WithRenderer(p.host),
		router.WithModuleLoader(router.NewModuleLoader(
			router.WithLoaderLogger(p.logger),
			router.WithResolveObserver(p.metrics.ObserveResolve),
		)),
		router.WithHooks(
			middleware.Tracing(),
			p.metrics.Hook(),
			router.TitleHook(p.host, p.appName),
			router.DescriptionHook(p.host),
		),
		router.WithNavigationObserver(p.metrics.ObserveNavigation),
		router.WithLogger(p.logger),
	)

	routes := make([]RouteInfo, 0, reg.Len())
	for _, d := range reg.Routes() {
		info := RouteInfo{
			Name:        d.Name,
			Path:        d.Path,
			Title:       d.Meta.Title,
			Description: d.Meta.Description,
			Redirect:    d.Redirect,
		}
		if u, ok := index.UnitForRoute(d.Name); ok {
			info.Unit = u.File
			if closure, err := index.Closure(u.Name); err == nil {
				for _, c := range closure {
					info.Units = append(info.Units, c.Name)
				}
			}
		}
		routes = append(routes, info)
	}

	p.mu.Lock()
	previous := ""
	if p.engine != nil {
		previous = p.engine.CurrentPath()
	}
	p.engine = engine
	p.fetcher = fetcher
	p.routes = routes
	p.mu.Unlock()

	if previous != "" {
		if _, err := engine.Navigate(ctx, previous, router.WithReplace(), router.WithoutScroll()); err != nil {
			p.logger.Warn("restoring route after rebuild failed", "path", previous, "error", err)
		}
	}
	return nil
}

// Navigate navigates the preview engine to path.
func (p *Preview) Navigate(ctx context.Context, path string) (*NavigationResult, error) {
	e, err := p.current()
	if err != nil {
		return nil, err
	}
	res, err := e.Navigate(ctx, path)
	return toResult(res), err
}

// Back replays the previous history entry.
func (p *Preview) Back(ctx context.Context) (*NavigationResult, error) {
	e, err := p.current()
	if err != nil {
		return nil, err
	}
	res, err := e.Back(ctx)
	return toResult(res), err
}

// Forward replays the next history entry.
func (p *Preview) Forward(ctx context.Context) (*NavigationResult, error) {
	e, err := p.current()
	if err != nil {
		return nil, err
	}
	res, err := e.Forward(ctx)
	return toResult(res), err
}

// Routes returns the routes of the loaded build.
func (p *Preview) Routes() []RouteInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]RouteInfo(nil), p.routes...)
}

// Fetches returns how many unit files the current build's fetcher read.
func (p *Preview) Fetches() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.fetcher == nil {
		return 0
	}
	return p.fetcher.Fetches()
}

func (p *Preview) current() (*router.Engine, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.engine == nil {
		return nil, ErrNotLoaded
	}
	return p.engine, nil
}

func toResult(res *router.Result) *NavigationResult {
	if res == nil {
		return nil
	}
	out := &NavigationResult{
		RequestedPath: res.RequestedPath,
		Path:          res.Path,
		Status:        res.Status.String(),
		Scroll:        res.Scroll,
		Redirects:     res.Redirects,
	}
	if res.Route != nil {
		out.Route = res.Route.Name
	}
	if b, ok := res.Module.(*loader.Bundle); ok {
		out.Bytes = b.Size()
	}
	return out
}
