// Package errors provides coded, actionable errors for the waypoint tool.
//
// Configuration, route table, build and publish failures are reported as a
// *WaypointError carrying a stable code, a category, and optionally the
// source location in the offending YAML or JSON file:
//
//	err := errors.New("E201").
//	    WithLocation("routes.yaml", 14, 9).
//	    WithDetail(`route name "home" is already used by "/"`).
//	    WithSuggestion("Give every route a unique name")
//
//	fmt.Print(err.Format())
//	// ERROR E201: Duplicate route name
//	//
//	//   routes.yaml:14:9
//	//
//	//     12 │ - path: /
//	//     13 │   name: home
//	//   → 14 │ - path: /start
//	//        │         ^
//	//   ...
//
// # Codes
//
//   - E120-E149: configuration and CLI
//   - E200-E219: route table
//   - E300-E319: module manifest and partitioning
//   - E400-E419: publishing
package errors
