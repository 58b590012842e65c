// Package handler implements the HTTP API of the cpgview server.
//
// GraphHandler exposes one exploration session to a browser UI: the current
// view, filter changes, the per-node commands (expand, component, remove,
// focus), queries, analysis runs, import/export and snapshots. Every view
// response carries the displayed graph in vis-network form.
//
// Request bodies are JSON and checked with go-playground/validator before
// they reach the service. Errors are returned as {error, details} with a
// status derived from the sentinel error: 502 for backend transport or
// payload problems, 409 for stale expansions and an empty backend, 404 for
// unknown nodes and snapshots, 400 for bad input.
//
// Middleware provides panic recovery, CORS and request logging with
// Prometheus request metrics.
package handler
