// Package dev provides the preview server used by "waypoint dev".
//
// The server builds the project, serves the output under the configured
// base path, and rebuilds when sources, routes.yaml, modules.yaml or
// waypoint.json change. Client-side routes that match no output file get
// index.html, so deep links work.
//
// # Architecture
//
//   - Watcher: fsnotify watcher delivering debounced change batches
//   - Server: chi router serving the build output through an LRU cache
//   - ReloadServer: notifies browsers of rebuilds via WebSocket
//   - Preview: a navigation engine over the current build, whose title,
//     scroll and mount side effects are broadcast to browsers
//
// # Usage
//
//	srv, err := dev.NewServer(dev.ServerOptions{Config: cfg})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
//	GET  /__waypoint/reload     live reload WebSocket
//	GET  /__waypoint/host       host side effects WebSocket
//	POST /__waypoint/navigate   {"path": "/framework"}
//	POST /__waypoint/back
//	POST /__waypoint/forward
//	GET  /__waypoint/routes     routes and their load units
//	GET  /metrics               Prometheus navigation metrics
//
// # Reload Protocol
//
// Messages on /__waypoint/reload are JSON-encoded:
//
//	{"type": "reload"}                // Triggers full page reload
//	{"type": "error", "error": "..."} // Shows error overlay
//	{"type": "clear"}                 // Clears error overlay
package dev
