package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// UnitKind classifies a load unit.
type UnitKind string

const (
	// KindRuntime units hold third-party runtime modules.
	KindRuntime UnitKind = "runtime"

	// KindView units hold exactly one route's view module.
	KindView UnitKind = "view"

	// KindEntry is the application entry unit.
	KindEntry UnitKind = "entry"
)

// ErrUnknownUnit is returned when a unit name is not in the index.
var ErrUnknownUnit = errors.New("unknown load unit")

// Unit is one load unit as written to units.json.
type Unit struct {
	Name    string   `json:"name"`
	Kind    UnitKind `json:"kind"`
	File    string   `json:"file"`
	Hash    string   `json:"hash"`
	Size    int64    `json:"size"`
	Modules []string `json:"modules"`
	Imports []string `json:"imports,omitempty"`
}

// UnitIndex is the contents of units.json.
type UnitIndex struct {
	// Units by name.
	Units map[string]Unit `json:"units"`

	// Routes maps a route name to the unit holding its view.
	Routes map[string]string `json:"routes"`

	// Inline maps small asset sources to data URIs.
	Inline map[string]string `json:"inline,omitempty"`
}

// NewUnitIndex creates an empty index.
func NewUnitIndex() *UnitIndex {
	return &UnitIndex{
		Units:  make(map[string]Unit),
		Routes: make(map[string]string),
	}
}

// LoadUnits reads a units.json file.
func LoadUnits(path string) (*UnitIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseUnits(data)
}

// ParseUnits decodes units.json and checks that every import and route
// refers to a known unit.
func ParseUnits(data []byte) (*UnitIndex, error) {
	idx := NewUnitIndex()
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("parse units: %w", err)
	}
	if idx.Units == nil {
		idx.Units = make(map[string]Unit)
	}
	if idx.Routes == nil {
		idx.Routes = make(map[string]string)
	}
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Validate checks internal references.
func (idx *UnitIndex) Validate() error {
	for _, name := range idx.Names() {
		u := idx.Units[name]
		if u.Name != name {
			return fmt.Errorf("unit %q recorded under %q", u.Name, name)
		}
		for _, imp := range u.Imports {
			if _, ok := idx.Units[imp]; !ok {
				return fmt.Errorf("unit %q imports %w %q", name, ErrUnknownUnit, imp)
			}
		}
	}
	for route, unit := range idx.Routes {
		if _, ok := idx.Units[unit]; !ok {
			return fmt.Errorf("route %q maps to %w %q", route, ErrUnknownUnit, unit)
		}
	}
	return nil
}

// Add stores u, replacing any unit with the same name.
func (idx *UnitIndex) Add(u Unit) {
	idx.Units[u.Name] = u
}

// Lookup returns the named unit.
func (idx *UnitIndex) Lookup(name string) (Unit, bool) {
	u, ok := idx.Units[name]
	return u, ok
}

// UnitForRoute returns the unit that holds route's view.
func (idx *UnitIndex) UnitForRoute(route string) (Unit, bool) {
	name, ok := idx.Routes[route]
	if !ok {
		return Unit{}, false
	}
	return idx.Lookup(name)
}

// Names returns unit names in sorted order.
func (idx *UnitIndex) Names() []string {
	names := make([]string, 0, len(idx.Units))
	for name := range idx.Units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Closure returns name and every unit it imports, transitively, with
// dependencies before the units that import them. Import cycles are
// tolerated; each unit appears once.
func (idx *UnitIndex) Closure(name string) ([]Unit, error) {
	if _, ok := idx.Units[name]; !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownUnit, name)
	}

	var (
		out     []Unit
		visited = make(map[string]bool)
		visit   func(string) error
	)
	visit = func(n string) error {
		if visited[n] {
			return nil
		}
		visited[n] = true
		u, ok := idx.Units[n]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownUnit, n)
		}
		imports := append([]string(nil), u.Imports...)
		sort.Strings(imports)
		for _, imp := range imports {
			if err := visit(imp); err != nil {
				return err
			}
		}
		out = append(out, u)
		return nil
	}
	if err := visit(name); err != nil {
		return nil, err
	}
	return out, nil
}

// Save writes the index as indented JSON.
func (idx *UnitIndex) Save(path string) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
