// Package build partitions a waypoint project into load units and writes
// the production output.
//
// The partitioner is pure. It reads the module manifest (modules.yaml) and
// route table (routes.yaml) and decides:
//   - which runtime modules share a unit (manual chunks, then "vendor")
//   - one view unit per route, named after the route
//   - the entry unit ("index") for application code
//   - hashed output names for units and assets
//
// # Usage
//
//	builder := build.New(cfg, build.Options{})
//	result, err := builder.Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Built in %s\n", result.Duration)
//
// # Output Structure
//
//	dist/
//	├── assets/
//	│   ├── js/           # load units: {name}-{hash8}.js
//	│   ├── images/       # png jpg jpeg svg gif tiff bmp ico
//	│   ├── fonts/        # woff woff2 ttf
//	│   └── {ext}/        # anything else, by extension
//	├── manifest.json     # source path -> output path
//	└── units.json        # units, their imports, and route -> unit
package build
