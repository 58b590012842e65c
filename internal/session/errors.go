package session

import "errors"

var (
	// ErrStaleExpansion marks an expansion issued against a dataset that has
	// since been reset. Its result is discarded.
	ErrStaleExpansion = errors.New("stale expansion discarded")

	// ErrUnknownCommand is returned for commands the reducer cannot apply
	// synchronously
	ErrUnknownCommand = errors.New("unknown command")

	// ErrEngineStopped is returned once the engine loop has exited
	ErrEngineStopped = errors.New("session engine stopped")
)
