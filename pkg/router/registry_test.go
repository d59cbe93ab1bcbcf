package router

import (
	"errors"
	"testing"
)

func TestRegistryMatchExact(t *testing.T) {
	r := newAppRegistry(nil)
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"/", "home"},
		{"/quick-start", "quick-start"},
		{"/diagnosis", "diagnosis"},
		{"/mva-template", "mva-template"},
		{"/framework", "framework"},
		{"/case-library", "case-library"},
		{"/quality-check", "quality-check"},
		{"/feedback", "feedback"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d, err := r.Match(tt.path)
			if err != nil {
				t.Fatalf("Match(%q) error = %v", tt.path, err)
			}
			if d.Name != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.path, d.Name, tt.want)
			}
		})
	}
}

func TestRegistryMatchIndependentOfOrder(t *testing.T) {
	routes := appRoutes(nil)
	reversed := NewRegistry()
	for i := len(routes) - 1; i >= 0; i-- {
		if err := reversed.Register(routes[i]); err != nil {
			t.Fatalf("Register(%q) error = %v", routes[i].Name, err)
		}
	}
	forward := newAppRegistry(nil)

	for _, d := range routes {
		if d.IsWildcard() {
			continue
		}
		a, _ := forward.Match(d.Path)
		b, _ := reversed.Match(d.Path)
		if a.Name != b.Name || a.Name != d.Name {
			t.Errorf("Match(%q): forward=%q reversed=%q want %q", d.Path, a.Name, b.Name, d.Name)
		}
	}
}

func TestRegistryFallback(t *testing.T) {
	r := newAppRegistry(nil)

	for _, path := range []string{"/unknown/xyz", "", "/a/b/c", "/quick-start/", "quick-start", "/FEEDBACK"} {
		d, err := r.Match(path)
		if err != nil {
			t.Fatalf("Match(%q) error = %v", path, err)
		}
		if d.Name != "not-found" || !d.IsWildcard() {
			t.Errorf("Match(%q) = %q, want fallback", path, d.Name)
		}
		if d.Redirect != "/" {
			t.Errorf("fallback redirect = %q, want /", d.Redirect)
		}
	}
}

func TestRegistryNoFallback(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Descriptor{Path: "/", Name: "home", Loader: Resolved("home")})

	if _, err := r.Match("/missing"); !errors.Is(err, ErrRouteNotMatched) {
		t.Errorf("Match() error = %v, want ErrRouteNotMatched", err)
	}
	if r.Fallback() != nil {
		t.Error("Fallback() should be nil")
	}
}

func TestRegistryRegisterErrors(t *testing.T) {
	tests := []struct {
		name    string
		second  Descriptor
		wantErr error
	}{
		{"duplicate name", Descriptor{Path: "/other", Name: "home"}, ErrDuplicateName},
		{"duplicate path", Descriptor{Path: "/", Name: "root"}, ErrDuplicatePath},
		{"second wildcard", Descriptor{Path: "/*rest", Name: "catch", Redirect: "/"}, ErrMultipleFallbacks},
		{"wildcard without redirect", Descriptor{Path: "*", Name: "nowhere"}, ErrFallbackRedirect},
		{"trailing slash", Descriptor{Path: "/about/", Name: "about"}, ErrInvalidPattern},
		{"dynamic segment", Descriptor{Path: "/users/:id", Name: "user"}, ErrInvalidPattern},
		{"missing name", Descriptor{Path: "/about"}, ErrMissingName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			r.MustRegister(
				Descriptor{Path: "/", Name: "home", Loader: Resolved("home")},
				Descriptor{Path: "/:pathMatch(.*)*", Name: "not-found", Redirect: "/"},
			)
			err := r.Register(tt.second)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
			if r.Len() != 2 {
				t.Errorf("Len() = %d after failed Register, want 2", r.Len())
			}
		})
	}
}

func TestRegistryValidate(t *testing.T) {
	t.Run("redirect to unknown path", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(
			Descriptor{Path: "/home", Name: "home", Loader: Resolved("home")},
			Descriptor{Path: "*", Name: "not-found", Redirect: "/"},
		)
		if err := r.Validate(); !errors.Is(err, ErrFallbackRedirect) {
			t.Errorf("Validate() = %v, want ErrFallbackRedirect", err)
		}
	})

	t.Run("missing loader", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(Descriptor{Path: "/", Name: "home"})
		if err := r.Validate(); !errors.Is(err, ErrNoLoader) {
			t.Errorf("Validate() = %v, want ErrNoLoader", err)
		}
	})
}

func TestRegistryRoutesOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		Descriptor{Path: "/:pathMatch(.*)*", Name: "not-found", Redirect: "/"},
		Descriptor{Path: "/b", Name: "b", Loader: Resolved("b")},
		Descriptor{Path: "/", Name: "home", Loader: Resolved("home")},
	)

	routes := r.Routes()
	got := make([]string, len(routes))
	for i, d := range routes {
		got[i] = d.Name
	}
	want := []string{"b", "home", "not-found"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Routes() = %v, want %v", got, want)
		}
	}

	if d, ok := r.Lookup("b"); !ok || d.Path != "/b" {
		t.Errorf("Lookup(b) = %v, %v", d, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}
