// Package host provides environments for the navigation engine.
//
// A host receives the side effects a navigation produces: the document
// title, the meta description, the scroll offset, and the mounted view.
//
//   - Recorder keeps everything in memory. It is the host used in tests and
//     by the navigate command.
//   - Broadcast forwards every side effect to connected browsers over
//     WebSocket and remembers the latest state for late joiners.
package host
