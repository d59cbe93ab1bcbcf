package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/vango-dev/waypoint/pkg/assets"
	"github.com/vango-dev/waypoint/pkg/router"
)

// DefaultCacheSize is the number of unit bodies a Fetcher keeps.
const DefaultCacheSize = 256

var (
	// ErrNoUnit is returned when a route has no unit in the index.
	ErrNoUnit = errors.New("route has no load unit")

	// ErrIntegrity is returned when a unit body does not match its hash.
	ErrIntegrity = errors.New("load unit hash mismatch")
)

// LoadedUnit is a fetched unit body.
type LoadedUnit struct {
	Unit assets.Unit
	Body []byte
}

// Bundle is the module produced for a route: its view unit and every unit
// it imports, dependencies first.
type Bundle struct {
	Route string
	Units []LoadedUnit
}

// View returns the route's own unit, which is always last.
func (b *Bundle) View() LoadedUnit {
	return b.Units[len(b.Units)-1]
}

// Size returns the total body size.
func (b *Bundle) Size() int64 {
	var n int64
	for _, u := range b.Units {
		n += int64(len(u.Body))
	}
	return n
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCacheSize sets the unit cache capacity.
func WithCacheSize(n int) Option {
	return func(f *Fetcher) {
		f.cacheSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithoutVerify skips hash checks on fetched bodies.
func WithoutVerify() Option {
	return func(f *Fetcher) {
		f.verify = false
	}
}

// Fetcher loads units described by a unit index from a Source.
type Fetcher struct {
	index     *assets.UnitIndex
	source    Source
	cache     *lru.Cache[string, []byte]
	group     singleflight.Group
	cacheSize int
	verify    bool
	fetches   atomic.Int64
	logger    *slog.Logger
}

// NewFetcher creates a fetcher over index and source.
func NewFetcher(index *assets.UnitIndex, source Source, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		index:     index,
		source:    source,
		cacheSize: DefaultCacheSize,
		verify:    true,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "loader")

	cache, err := lru.New[string, []byte](f.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create unit cache: %w", err)
	}
	f.cache = cache
	return f, nil
}

// Unit fetches a single unit body, from cache when possible.
func (f *Fetcher) Unit(ctx context.Context, name string) ([]byte, error) {
	u, ok := f.index.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", assets.ErrUnknownUnit, name)
	}
	if body, ok := f.cache.Get(u.File); ok {
		return body, nil
	}

	ch := f.group.DoChan(u.File, func() (any, error) {
		if body, ok := f.cache.Get(u.File); ok {
			return body, nil
		}
		return f.fetch(context.WithoutCancel(ctx), u)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (f *Fetcher) fetch(ctx context.Context, u assets.Unit) ([]byte, error) {
	start := time.Now()
	f.fetches.Add(1)

	body, err := f.source.Open(ctx, u.File)
	if err != nil {
		return nil, fmt.Errorf("fetch unit %q: %w", u.Name, err)
	}
	if f.verify && u.Hash != "" {
		sum := sha256.Sum256(body)
		if got := hex.EncodeToString(sum[:]); !strings.HasPrefix(got, u.Hash) {
			return nil, fmt.Errorf("%w: unit %q does not match %s", ErrIntegrity, u.Name, u.Hash)
		}
	}

	f.cache.Add(u.File, body)
	f.logger.Debug("unit fetched",
		"unit", u.Name,
		"size", humanize.Bytes(uint64(len(body))),
		"duration", time.Since(start))
	return body, nil
}

// Bundle fetches route's view unit and its import closure.
func (f *Fetcher) Bundle(ctx context.Context, route string) (*Bundle, error) {
	unit, ok := f.index.UnitForRoute(route)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoUnit, route)
	}
	units, err := f.index.Closure(unit.Name)
	if err != nil {
		return nil, err
	}

	b := &Bundle{Route: route, Units: make([]LoadedUnit, 0, len(units))}
	for _, u := range units {
		body, err := f.Unit(ctx, u.Name)
		if err != nil {
			return nil, err
		}
		b.Units = append(b.Units, LoadedUnit{Unit: u, Body: body})
	}
	return b, nil
}

// Loader returns a router.Loader that resolves route to a *Bundle.
func (f *Fetcher) Loader(route string) router.Loader {
	return router.LoaderFunc(func(ctx context.Context) (router.Module, error) {
		return f.Bundle(ctx, route)
	})
}

// Fetches returns the number of fetches issued to the source.
func (f *Fetcher) Fetches() int64 {
	return f.fetches.Load()
}

// Cached reports whether the named unit body is cached.
func (f *Fetcher) Cached(name string) bool {
	u, ok := f.index.Lookup(name)
	return ok && f.cache.Contains(u.File)
}

// Index returns the unit index.
func (f *Fetcher) Index() *assets.UnitIndex {
	return f.index
}
