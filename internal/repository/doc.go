// Package repository defines the persistence interface for cpgview.
//
// The only persisted entity is a snapshot: a named copy of a session store
// (every node and edge discovered so far) that can be restored later without
// re-running the analysis. The implementation lives in the sqlite subpackage.
//
// # SQLite Implementation
//
// The sqlite implementation uses the pure-Go modernc.org/sqlite driver and
// a single connection. It handles:
//
// - JSON serialization of node and edge properties
// - Cascade deletes from snapshots to their nodes and edges
// - Transactional saves, so a snapshot is either complete or absent
//
// # Testing
//
// The sqlite repository is tested against in-memory databases.
package repository
