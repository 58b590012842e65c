package session

import (
	"cpgview/internal/domain"
	"cpgview/internal/filter"
)

// Command is anything the session reducer accepts. The set is closed: only
// the types in this file implement it.
type Command interface {
	Name() string
	command()
}

// ViewCommand is a user action on the displayed graph
type ViewCommand interface {
	Command
	viewCommand()
}

// Filter replaces the filter state and re-projects from the full store
type Filter struct {
	State filter.FilterState
}

// Expand fetches the neighbourhood of a node and unions it into the view
type Expand struct {
	NodeID string
}

// ExpandComponent replaces the view with the connected component of a node
type ExpandComponent struct {
	NodeID string
}

// Remove hides a node and its incident edges from the view
type Remove struct {
	NodeID string
}

// Focus narrows the view to a node and its displayed neighbours
type Focus struct {
	NodeID string
}

// Load merges a query result and displays it under the current filters
type Load struct {
	Query  string
	Result domain.GraphDataset
}

// Reset discards the store for a new analysis run
type Reset struct{}

// Restore replaces the store with a saved dataset
type Restore struct {
	Dataset domain.GraphDataset
}

func (Filter) Name() string          { return "filter" }
func (Expand) Name() string          { return "expand" }
func (ExpandComponent) Name() string { return "expand_component" }
func (Remove) Name() string          { return "remove" }
func (Focus) Name() string           { return "focus" }
func (Load) Name() string            { return "load" }
func (Reset) Name() string           { return "reset" }
func (Restore) Name() string         { return "restore" }

func (Filter) command()          {}
func (Expand) command()          {}
func (ExpandComponent) command() {}
func (Remove) command()          {}
func (Focus) command()           {}
func (Load) command()            {}
func (Reset) command()           {}
func (Restore) command()         {}

func (Filter) viewCommand()          {}
func (Expand) viewCommand()          {}
func (ExpandComponent) viewCommand() {}
func (Remove) viewCommand()          {}
func (Focus) viewCommand()           {}
