package config

import (
	"os"
	"sort"

	"github.com/vango-dev/waypoint/internal/errors"
)

// ModuleKind classifies a module in modules.yaml.
type ModuleKind string

const (
	// KindRuntime is a third-party runtime module.
	KindRuntime ModuleKind = "runtime"

	// KindView is a route's view module.
	KindView ModuleKind = "view"

	// KindEntry is application code loaded at startup.
	KindEntry ModuleKind = "entry"
)

// Module is one module in modules.yaml.
type Module struct {
	Name    string     `yaml:"name"`
	Kind    ModuleKind `yaml:"kind"`
	Path    string     `yaml:"path"`
	Imports []string   `yaml:"imports,omitempty"`

	position `yaml:"-"`
}

// ModuleManifest is the parsed contents of modules.yaml.
type ModuleManifest struct {
	Modules []Module
	Assets  []string

	byName map[string]int
	file   string
}

// LoadModules reads modules.yaml.
func LoadModules(path string) (*ModuleManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E302").WithDetail(err.Error()).Wrap(err)
	}
	return ParseModules(data, path)
}

// ParseModules decodes and validates a module manifest.
func ParseModules(data []byte, file string) (*ModuleManifest, error) {
	items, err := sequence(data, "modules")
	if err != nil {
		return nil, errors.New("E302").WithDetail(err.Error()).Wrap(err)
	}

	m := &ModuleManifest{byName: make(map[string]int), file: file}
	for _, item := range items {
		var mod Module
		if err := item.Decode(&mod); err != nil {
			return nil, errors.New("E302").
				WithLocation(file, item.Line, item.Column).
				WithDetail(err.Error()).
				Wrap(err)
		}
		mod.set(item)
		if err := m.add(mod); err != nil {
			return nil, err
		}
	}

	assets, err := sequence(data, "assets")
	if err != nil {
		return nil, errors.New("E302").WithDetail(err.Error()).Wrap(err)
	}
	for _, a := range assets {
		if a.Value == "" {
			return nil, errors.New("E302").
				WithLocation(file, a.Line, a.Column).
				WithDetail("asset path must not be empty")
		}
		m.Assets = append(m.Assets, a.Value)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ModuleManifest) add(mod Module) error {
	fail := func(format string, args ...any) error {
		return errors.New("E302").
			WithLocation(m.file, mod.Line, mod.Column).
			WithDetailf(format, args...)
	}
	switch {
	case mod.Name == "":
		return fail("module name is required")
	case mod.Path == "":
		return fail("module %q has no path", mod.Name)
	case mod.Kind != KindRuntime && mod.Kind != KindView && mod.Kind != KindEntry:
		return fail("module %q has unknown kind %q", mod.Name, mod.Kind)
	}
	if _, dup := m.byName[mod.Name]; dup {
		return fail("module %q is listed twice", mod.Name)
	}
	m.byName[mod.Name] = len(m.Modules)
	m.Modules = append(m.Modules, mod)
	return nil
}

// Validate checks that every import names a known module.
func (m *ModuleManifest) Validate() error {
	for _, mod := range m.Modules {
		for _, imp := range mod.Imports {
			if _, ok := m.byName[imp]; !ok {
				return errors.New("E302").
					WithLocation(m.file, mod.Line, mod.Column).
					WithDetailf("module %q imports unknown module %q", mod.Name, imp)
			}
		}
	}
	return nil
}

// Lookup returns the named module.
func (m *ModuleManifest) Lookup(name string) (Module, bool) {
	i, ok := m.byName[name]
	if !ok {
		return Module{}, false
	}
	return m.Modules[i], true
}

// Names returns the names of modules of kind, sorted.
func (m *ModuleManifest) Names(kind ModuleKind) []string {
	var out []string
	for _, mod := range m.Modules {
		if mod.Kind == kind {
			out = append(out, mod.Name)
		}
	}
	sort.Strings(out)
	return out
}

// NewModuleManifest builds a manifest in code, validating it like
// ParseModules.
func NewModuleManifest(modules []Module, assets []string) (*ModuleManifest, error) {
	m := &ModuleManifest{byName: make(map[string]int), file: "<memory>"}
	for _, mod := range modules {
		if err := m.add(mod); err != nil {
			return nil, err
		}
	}
	m.Assets = append(m.Assets, assets...)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
