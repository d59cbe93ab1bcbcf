// Package loader fetches built load units and exposes them as router
// loaders.
//
// A Fetcher reads units.json from a build, then resolves a route's view by
// fetching the view unit together with every unit it imports. Unit bodies
// are cached, and concurrent requests for the same unit share one fetch, so
// a runtime unit imported by many views is downloaded once.
//
//	idx, _ := assets.LoadUnits("dist/units.json")
//	f, _ := loader.NewFetcher(idx, loader.NewHTTPSource("https://example.com/app/"))
//
//	reg.MustRegister(router.Descriptor{
//	    Path:   "/feedback",
//	    Name:   "feedback",
//	    Loader: f.Loader("feedback"),
//	})
package loader
