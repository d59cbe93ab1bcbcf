//go:build property
// +build property

package router

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestMatchProperties checks route matching against arbitrary paths.
func TestMatchProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	r := newAppRegistry(nil)

	known := make(map[string]bool)
	for _, d := range r.Routes() {
		if !d.IsWildcard() {
			known[d.Path] = true
		}
	}

	properties.Property("every path matches exactly one route", prop.ForAll(
		func(segment string) bool {
			path := "/" + segment
			d, err := r.Match(path)
			if err != nil {
				return false
			}
			if known[path] {
				return d.Path == path
			}
			return d.IsWildcard() && d.Redirect == "/"
		},
		gen.AlphaString(),
	))

	properties.Property("matching does not depend on registration order", prop.ForAll(
		func(seed int, segment string) bool {
			routes := appRoutes(nil)
			n := len(routes)
			shuffled := make([]Descriptor, n)
			for i := range routes {
				shuffled[(i*7+seed%n+n)%n] = routes[i]
			}
			other := NewRegistry()
			for _, d := range shuffled {
				if err := other.Register(d); err != nil {
					return false
				}
			}

			path := "/" + segment
			a, errA := r.Match(path)
			b, errB := other.Match(path)
			return errA == nil && errB == nil && a.Name == b.Name
		},
		gen.Int(),
		gen.AlphaString(),
	))

	properties.Property("navigation always ends on a registered view", prop.ForAll(
		func(segment string) bool {
			e := NewEngine(r)
			res, err := e.Navigate(context.Background(), "/"+segment)
			if err != nil || res.Status != StatusCommitted {
				return false
			}
			return res.Route != nil && !res.Route.IsWildcard() && known[res.Path]
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
