package router

import (
	"fmt"
	"sync"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// Registry maps paths to route descriptors.
//
// Matching is two-phase: an exact lookup by path, then the declared
// fallback. Registration order only matters for Routes().
type Registry struct {
	mu       sync.RWMutex
	routes   []*Descriptor
	byPath   map[string]*Descriptor
	byName   map[string]*Descriptor
	fallback *Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byPath: make(map[string]*Descriptor),
		byName: make(map[string]*Descriptor),
	}
}

// Register adds a route. It fails on a duplicate name or path, a second
// wildcard, a non-canonical pattern, or a wildcard without a redirect.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w (path %q)", ErrMissingName, d.Path)
	}

	wildcard := d.IsWildcard()
	if !wildcard {
		if err := routepath.ValidatePattern(d.Path); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidPattern, d.Path, err)
		}
	} else if d.Redirect == "" {
		return fmt.Errorf("%w: wildcard route %q must redirect", ErrFallbackRedirect, d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[d.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
	}
	desc := &d
	if wildcard {
		if r.fallback != nil {
			return fmt.Errorf("%w: %q and %q", ErrMultipleFallbacks, r.fallback.Name, d.Name)
		}
		r.fallback = desc
	} else {
		if prev, ok := r.byPath[d.Path]; ok {
			return fmt.Errorf("%w: %q used by %q and %q", ErrDuplicatePath, d.Path, prev.Name, d.Name)
		}
		r.byPath[d.Path] = desc
		r.routes = append(r.routes, desc)
	}
	r.byName[d.Name] = desc
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(descs ...Descriptor) {
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Validate checks cross-route invariants that can only be known once every
// route is registered: redirect targets must be registered paths and
// non-redirect routes must have a loader.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.all() {
		if d.Redirect != "" {
			if _, ok := r.byPath[d.Redirect]; !ok {
				return fmt.Errorf("%w: route %q redirects to unregistered path %q", ErrFallbackRedirect, d.Name, d.Redirect)
			}
			continue
		}
		if d.Loader == nil {
			return fmt.Errorf("%w: %q", ErrNoLoader, d.Name)
		}
	}
	return nil
}

// Match returns the descriptor whose pattern equals path, or the fallback.
// The path is not canonicalized: "" and "/about/" only match the fallback.
func (r *Registry) Match(path string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.byPath[path]; ok {
		return d, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrRouteNotMatched, path)
}

// Lookup returns the route registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// Fallback returns the wildcard route, if any.
func (r *Registry) Fallback() *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Routes returns all routes in registration order, fallback last.
func (r *Registry) Routes() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.all()
}

// Len returns the number of registered routes including the fallback.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

func (r *Registry) all() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.routes)+1)
	out = append(out, r.routes...)
	if r.fallback != nil {
		out = append(out, r.fallback)
	}
	return out
}
