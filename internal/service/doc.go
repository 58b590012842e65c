// Package service implements the application layer of cpgview.
//
// GraphService sits between the HTTP handlers, the CLI and the session engine.
// It talks to the analysis backend, turns query results into session commands
// and persists snapshots through a repository.SnapshotRepository.
//
// # Event System
//
// GraphService is the engine's session.Publisher: every applied change is
// republished on the EventBus as a view_updated event carrying the
// vis-network graph, and the SSE hub forwards events to browsers. Analysis
// runs, resets, failed expansions and snapshot changes get their own events.
package service
