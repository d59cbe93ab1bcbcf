package config

import (
	stderrors "errors"
	"os"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
)

// RouteEntry is one route in routes.yaml.
type RouteEntry struct {
	Path     string      `yaml:"path"`
	Name     string      `yaml:"name"`
	Module   string      `yaml:"module,omitempty"`
	Meta     router.Meta `yaml:"meta,omitempty"`
	Redirect string      `yaml:"redirect,omitempty"`

	position `yaml:"-"`
}

// RouteTable is the parsed contents of routes.yaml, in file order.
type RouteTable struct {
	Routes []RouteEntry
	file   string
}

// LoaderFactory builds the loader for a route that renders a view.
type LoaderFactory func(e RouteEntry) router.Loader

// LoadRouteTable reads routes.yaml.
func LoadRouteTable(path string) (*RouteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E206").WithDetail(err.Error()).Wrap(err)
	}
	return ParseRouteTable(data, path)
}

// ParseRouteTable decodes a route table. file is used in error locations.
func ParseRouteTable(data []byte, file string) (*RouteTable, error) {
	items, err := sequence(data, "routes")
	if err != nil {
		return nil, errors.New("E206").WithDetail(err.Error()).Wrap(err)
	}

	t := &RouteTable{file: file}
	for _, item := range items {
		var e RouteEntry
		if err := item.Decode(&e); err != nil {
			return nil, errors.New("E206").
				WithLocation(file, item.Line, item.Column).
				WithDetail(err.Error()).
				Wrap(err)
		}
		e.set(item)
		t.Routes = append(t.Routes, e)
	}
	if len(t.Routes) == 0 {
		return nil, errors.New("E206").WithDetail("no routes defined in " + file)
	}
	return t, nil
}

// Modules maps each view route's name to its module.
func (t *RouteTable) Modules() map[string]string {
	out := make(map[string]string)
	for _, e := range t.Routes {
		if e.Redirect == "" && e.Module != "" {
			out[e.Name] = e.Module
		}
	}
	return out
}

// Registry registers every route and validates the result. A nil factory
// makes each view resolve to its module name.
func (t *RouteTable) Registry(factory LoaderFactory) (*router.Registry, error) {
	if factory == nil {
		factory = func(e RouteEntry) router.Loader {
			return router.Resolved(e.Module)
		}
	}

	reg := router.NewRegistry()
	for _, e := range t.Routes {
		d := router.Descriptor{
			Path:     e.Path,
			Name:     e.Name,
			Module:   e.Module,
			Meta:     e.Meta,
			Redirect: e.Redirect,
		}
		if e.Redirect == "" {
			if e.Module == "" {
				return nil, errors.New("E206").
					WithLocation(t.file, e.Line, e.Column).
					WithDetailf("route %q has neither a module nor a redirect", e.Name)
			}
			d.Loader = factory(e)
		}
		if err := reg.Register(d); err != nil {
			return nil, routeError(err).
				WithLocation(t.file, e.Line, e.Column).
				WithDetail(err.Error()).
				Wrap(err)
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, routeError(err).WithDetail(err.Error()).Wrap(err)
	}
	return reg, nil
}

// LoadRoutes reads routes.yaml and builds a validated registry.
func LoadRoutes(path string, factory LoaderFactory) (*router.Registry, error) {
	t, err := LoadRouteTable(path)
	if err != nil {
		return nil, err
	}
	return t.Registry(factory)
}

func routeError(err error) *errors.WaypointError {
	switch {
	case stderrors.Is(err, router.ErrDuplicateName):
		return errors.New("E201")
	case stderrors.Is(err, router.ErrDuplicatePath):
		return errors.New("E202")
	case stderrors.Is(err, router.ErrMultipleFallbacks):
		return errors.New("E203")
	case stderrors.Is(err, router.ErrInvalidPattern):
		return errors.New("E204")
	case stderrors.Is(err, router.ErrFallbackRedirect):
		return errors.New("E205")
	default:
		return errors.New("E206")
	}
}
