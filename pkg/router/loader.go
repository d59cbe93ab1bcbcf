package router

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ResolveObserver is notified after every underlying module fetch.
type ResolveObserver func(route string, d time.Duration, err error)

// ModuleLoader resolves view modules on demand and caches them for its
// lifetime. Concurrent first resolutions of the same route share one fetch.
type ModuleLoader struct {
	group     singleflight.Group
	mu        sync.RWMutex
	cache     map[string]Module
	logger    *slog.Logger
	observers []ResolveObserver
}

// ModuleLoaderOption configures a ModuleLoader.
type ModuleLoaderOption func(*ModuleLoader)

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *slog.Logger) ModuleLoaderOption {
	return func(l *ModuleLoader) {
		l.logger = logger
	}
}

// WithResolveObserver registers a callback run after each fetch.
func WithResolveObserver(fn ResolveObserver) ModuleLoaderOption {
	return func(l *ModuleLoader) {
		l.observers = append(l.observers, fn)
	}
}

// NewModuleLoader creates a module loader with an empty cache.
func NewModuleLoader(opts ...ModuleLoaderOption) *ModuleLoader {
	l := &ModuleLoader{
		cache:  make(map[string]Module),
		logger: slog.Default().With("component", "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve returns the module for d, fetching it on first use.
//
// The fetch is detached from ctx: if ctx is cancelled the caller stops
// waiting, but the fetch runs on and fills the cache for later callers.
// Failed fetches are not cached and not retried.
func (l *ModuleLoader) Resolve(ctx context.Context, d *Descriptor) (Module, error) {
	if d.Loader == nil {
		return nil, &ResolutionError{Route: d.Name, Err: ErrNoLoader}
	}
	if m, ok := l.lookup(d.Name); ok {
		return m, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(d.Name, func() (any, error) {
		// A flight that finished between lookup and DoChan already cached it.
		if m, ok := l.lookup(d.Name); ok {
			return m, nil
		}
		return l.fetch(fetchCtx, d)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, &ResolutionError{Route: d.Name, Err: res.Err}
		}
		return res.Val, nil
	}
}

// Resolved reports whether the route's module is cached.
func (l *ModuleLoader) Resolved(name string) bool {
	_, ok := l.lookup(name)
	return ok
}

// Preload resolves every descriptor with a loader, logging failures.
func (l *ModuleLoader) Preload(ctx context.Context, descs ...*Descriptor) {
	var wg sync.WaitGroup
	for _, d := range descs {
		if d.Loader == nil {
			continue
		}
		wg.Add(1)
		go func(d *Descriptor) {
			defer wg.Done()
			if _, err := l.Resolve(ctx, d); err != nil {
				l.logger.Warn("preload failed", "route", d.Name, "error", err)
			}
		}(d)
	}
	wg.Wait()
}

func (l *ModuleLoader) fetch(ctx context.Context, d *Descriptor) (Module, error) {
	start := time.Now()
	m, err := d.Loader.Load(ctx)
	elapsed := time.Since(start)

	for _, obs := range l.observers {
		obs(d.Name, elapsed, err)
	}
	if err != nil {
		l.logger.Warn("module fetch failed", "route", d.Name, "error", err)
		return nil, err
	}

	l.mu.Lock()
	l.cache[d.Name] = m
	l.mu.Unlock()

	l.logger.Debug("module resolved", "route", d.Name, "duration", elapsed)
	return m, nil
}

func (l *ModuleLoader) lookup(name string) (Module, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.cache[name]
	return m, ok
}
