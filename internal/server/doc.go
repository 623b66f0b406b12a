// Package server provides the local HTTP panel for live log viewing.
//
// # Router Infrastructure
//
// [Router] registers handlers with middleware support over [http.ServeMux].
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. [LogRequests] provides request logging
// through charmbracelet/log.
//
// # Handlers
//
//   - [PageHandler] : serves the panel page with its SSE consumer script
//   - [StreamHandler] : per-connection formatter session + backend poller,
//     streaming rendered HTML fragments as SSE data events in arrival order
//   - [RunsHandler] : JSON history of recorded sync runs
//
// Each stream connection owns an independent formatter session; fragments
// are append-only and ordered, mirroring the panel's insertion contract.
package server
