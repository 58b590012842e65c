package service

import "errors"

var (
	// ErrNoData is returned when the backend reports an empty database
	ErrNoData = errors.New("backend has no graph data")

	// ErrEmptyQuery is returned for a blank Cypher query
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNodeNotFound is returned when a node id is not in the store
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidScope is returned by Export for a scope other than view or store
	ErrInvalidScope = errors.New("invalid export scope")

	// ErrSnapshotsDisabled is returned when no snapshot repository is configured
	ErrSnapshotsDisabled = errors.New("snapshots are disabled")
)
