package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
)

const sampleRoutes = `routes:
  - path: /
    name: home
    module: views/Home
    meta:
      title: Home
  - path: /framework
    name: framework
    module: views/Framework
    meta:
      title: Framework
      description: The reading framework
  - path: /:pathMatch(.*)*
    name: not-found
    redirect: /
`

func TestParseRouteTable(t *testing.T) {
	table, err := ParseRouteTable([]byte(sampleRoutes), "routes.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Routes) != 3 {
		t.Fatalf("len(Routes) = %d, want 3", len(table.Routes))
	}

	fw := table.Routes[1]
	if fw.Meta.Description != "The reading framework" {
		t.Errorf("Meta = %+v", fw.Meta)
	}
	if fw.Line != 7 {
		t.Errorf("Line = %d, want 7", fw.Line)
	}

	mods := table.Modules()
	if len(mods) != 2 || mods["home"] != "views/Home" {
		t.Errorf("Modules() = %v", mods)
	}
}

func TestParseRouteTableRootList(t *testing.T) {
	table, err := ParseRouteTable([]byte("- path: /\n  name: home\n  module: views/Home\n"), "routes.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if table.Routes[0].Name != "home" {
		t.Errorf("Routes = %+v", table.Routes)
	}
}

func TestParseRouteTableErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "routes: []\n"},
		{"not a list", "routes: /\n"},
		{"bad yaml", "routes: [\n"},
		{"bad entry", "routes:\n  - path: [1, 2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRouteTable([]byte(tt.data), "routes.yaml")
			if errors.Code(err) != "E206" {
				t.Errorf("ParseRouteTable() = %v, want E206", err)
			}
		})
	}
}

func TestRouteTableRegistry(t *testing.T) {
	table, err := ParseRouteTable([]byte(sampleRoutes), "routes.yaml")
	if err != nil {
		t.Fatal(err)
	}

	reg, err := table.Registry(nil)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d", reg.Len())
	}
	if reg.Fallback() == nil || reg.Fallback().Redirect != "/" {
		t.Errorf("Fallback() = %+v", reg.Fallback())
	}

	d, err := reg.Match("/framework")
	if err != nil {
		t.Fatal(err)
	}
	mod, err := d.Loader.Load(context.Background())
	if err != nil || mod != "views/Framework" {
		t.Errorf("Load() = %v, %v", mod, err)
	}
	if d.Meta.Title != "Framework" {
		t.Errorf("Meta.Title = %q", d.Meta.Title)
	}
}

func TestRouteTableRegistryFactory(t *testing.T) {
	table, _ := ParseRouteTable([]byte(sampleRoutes), "routes.yaml")

	var built []string
	_, err := table.Registry(func(e RouteEntry) router.Loader {
		built = append(built, e.Name)
		return router.Resolved(e.Name)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(built) != 2 || built[0] != "home" || built[1] != "framework" {
		t.Errorf("factory called for %v", built)
	}
}

func TestRouteTableRegistryErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code string
		line int
	}{
		{
			name: "duplicate name",
			data: "- {path: /, name: home, module: a}\n- {path: /b, name: home, module: b}\n",
			code: "E201",
			line: 2,
		},
		{
			name: "duplicate path",
			data: "- {path: /, name: home, module: a}\n- {path: /, name: other, module: b}\n",
			code: "E202",
			line: 2,
		},
		{
			name: "two wildcards",
			data: "- {path: /, name: home, module: a}\n- {path: '/*', name: x, redirect: /}\n- {path: '/:all(.*)*', name: y, redirect: /}\n",
			code: "E203",
			line: 3,
		},
		{
			name: "dynamic segment",
			data: "- {path: '/users/:id', name: user, module: a}\n",
			code: "E204",
			line: 1,
		},
		{
			name: "wildcard without redirect",
			data: "- {path: /, name: home, module: a}\n- {path: '/*', name: x, module: b}\n",
			code: "E205",
			line: 2,
		},
		{
			name: "redirect to unknown path",
			data: "- {path: /, name: home, module: a}\n- {path: '/*', name: x, redirect: /missing}\n",
			code: "E205",
		},
		{
			name: "view without module",
			data: "- {path: /, name: home}\n",
			code: "E206",
			line: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseRouteTable([]byte(tt.data), "routes.yaml")
			if err != nil {
				t.Fatal(err)
			}
			_, err = table.Registry(nil)
			if got := errors.Code(err); got != tt.code {
				t.Fatalf("Registry() = %v, want %s", err, tt.code)
			}
			if tt.line == 0 {
				return
			}
			var we *errors.WaypointError
			if !asWaypoint(err, &we) || we.Location == nil || we.Location.Line != tt.line {
				t.Errorf("Location = %+v, want line %d", we.Location, tt.line)
			}
		})
	}
}

func TestLoadRoutes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "routes.yaml", sampleRoutes)

	reg, err := LoadRoutes(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.Lookup("not-found"); !ok {
		t.Error("fallback route missing")
	}

	_, err = LoadRoutes(filepath.Join(dir, "missing.yaml"), nil)
	if errors.Code(err) != "E206" {
		t.Errorf("LoadRoutes(missing) = %v", err)
	}
}
