package router

import (
	"context"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// Module is the opaque value a Loader produces for a view. The router never
// inspects it; it is handed to the Renderer on commit.
type Module any

// Meta contains per-route metadata.
type Meta struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Loader produces a view module on demand.
type Loader interface {
	Load(ctx context.Context) (Module, error)
}

// LoaderFunc is a function adapter for Loader.
type LoaderFunc func(ctx context.Context) (Module, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context) (Module, error) {
	return f(ctx)
}

type resolvedLoader struct {
	module Module
}

func (l resolvedLoader) Load(context.Context) (Module, error) {
	return l.module, nil
}

// Resolved returns a Loader for a module that is already available.
func Resolved(m Module) Loader {
	return resolvedLoader{module: m}
}

// Descriptor binds a path pattern to a loadable view and its metadata.
// Descriptors are copied on registration and must not be changed afterwards.
type Descriptor struct {
	// Path is the pattern. Non-wildcard patterns match by string equality.
	Path string

	// Name is the unique route identifier.
	Name string

	// Module is the name of the view module, used by the build to name load
	// units and by network loaders to find them.
	Module string

	// Loader resolves the view module. Redirect-only routes have none.
	Loader Loader

	// Meta is the route metadata.
	Meta Meta

	// Redirect, when set, sends navigations for this route to another path.
	// The wildcard route must declare one.
	Redirect string
}

// IsWildcard reports whether the descriptor is the catch-all fallback.
func (d *Descriptor) IsWildcard() bool {
	return routepath.IsWildcard(d.Path)
}

// Position is a viewport scroll offset.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ScrollTop is the position a forward navigation scrolls to.
var ScrollTop = Position{}

// Request describes a navigation in flight. It is created per navigation and
// discarded once the hooks and scroll policy have run.
type Request struct {
	// TargetPath is the path being navigated to, after redirects.
	TargetPath string

	// RequestedPath is the path originally asked for.
	RequestedPath string

	// PreviousPath is the path of the committed view, empty on the first
	// navigation.
	PreviousPath string

	// SavedScroll is set only for history (back/forward) navigations.
	SavedScroll *Position

	// Route is the matched descriptor.
	Route *Descriptor

	// Module is the resolved view module.
	Module Module

	// Redirects counts redirects followed so far.
	Redirects int

	// Replace marks a navigation that replaces the current history entry.
	Replace bool
}

// Host is the environment that shows the document title and viewport.
type Host interface {
	SetTitle(title string)
	SetScrollOffset(x, y int)
}

// DescriptionSetter is implemented by hosts that expose a meta description.
type DescriptionSetter interface {
	SetDescription(description string)
}

// ScrollReader is implemented by hosts that can report the current offset.
// The engine uses it to remember positions for back/forward navigation.
type ScrollReader interface {
	ScrollOffset() (x, y int)
}

// Renderer instantiates a resolved view.
type Renderer interface {
	Mount(ctx context.Context, route *Descriptor, m Module) error
}

// RendererFunc is a function adapter for Renderer.
type RendererFunc func(ctx context.Context, route *Descriptor, m Module) error

// Mount implements Renderer.
func (f RendererFunc) Mount(ctx context.Context, route *Descriptor, m Module) error {
	return f(ctx, route, m)
}
