// Package session owns the state of one exploration session and the reducer
// that applies user commands to it.
//
// # State
//
// A GraphSession holds the full store, the filter state and the displayed
// dataset. Filters are authoritative: applying a Filter command recomputes the
// view from the full store and discards manual edits. Remove, Focus and the
// expansion commands edit the displayed dataset directly and mark the session
// Diverged until the next Filter.
//
// # Expansion
//
// Expansion is split in two so the backend call never runs while the session
// is being mutated. BeginExpand captures the store generation in a Ticket;
// CompleteExpand applies the fetched data only if the generation is unchanged
// and returns ErrStaleExpansion otherwise.
//
// # Thread Safety
//
// GraphSession is NOT safe for concurrent use. Engine runs it on a single
// goroutine.
package session

import (
	"fmt"

	"cpgview/internal/domain"
	"cpgview/internal/expand"
	"cpgview/internal/filter"
	"cpgview/internal/store"
	"cpgview/internal/view"
)

// Result is the session state after a command
type Result struct {
	Command    string              `json:"command"`
	View       domain.GraphDataset `json:"-"`
	Filters    filter.FilterState  `json:"filters"`
	Generation uint64              `json:"generation"`
	Diverged   bool                `json:"diverged"`
	StoreNodes int                 `json:"store_nodes"`
	StoreEdges int                 `json:"store_edges"`
	Merge      *store.MergeResult  `json:"merge,omitempty"`
	Expansion  *expand.Outcome     `json:"expansion,omitempty"`
	Empty      bool                `json:"empty,omitempty"`
}

// Ticket identifies an expansion in flight
type Ticket struct {
	NodeID     string `json:"node_id"`
	Generation uint64 `json:"generation"`
}

// NodeDetail is what the UI shows when hovering a node
type NodeDetail struct {
	Node      domain.Node             `json:"node"`
	Displayed bool                    `json:"displayed"`
	Hidden    store.HiddenConnections `json:"hidden"`
}

// GraphSession is the state of one exploration session
type GraphSession struct {
	store     *store.GraphStore
	filters   filter.FilterState
	displayed domain.GraphDataset
	diverged  bool
}

// New creates an empty session. A nil tagger uses domain.DefaultTagger.
func New(tagger *domain.Tagger) *GraphSession {
	return &GraphSession{
		store:     store.New(tagger),
		filters:   filter.Default(),
		displayed: domain.NewGraphDataset(),
	}
}

// Store exposes the full store for read-only queries
func (s *GraphSession) Store() *store.GraphStore {
	return s.store
}

// Filters returns the current filter state
func (s *GraphSession) Filters() filter.FilterState {
	return s.filters
}

// Displayed returns a copy of the displayed dataset
func (s *GraphSession) Displayed() domain.GraphDataset {
	return s.displayed.Clone()
}

// Diverged reports whether manual edits have moved the view away from the
// pure projection of the store
func (s *GraphSession) Diverged() bool {
	return s.diverged
}

// Generation returns the current store generation
func (s *GraphSession) Generation() uint64 {
	return s.store.Generation()
}

// Inspect returns a stored node and its connections hidden from the view
func (s *GraphSession) Inspect(nodeID string) (NodeDetail, bool) {
	node, ok := s.store.Node(nodeID)
	if !ok {
		return NodeDetail{}, false
	}
	return NodeDetail{
		Node:      node,
		Displayed: s.displayed.HasNode(nodeID),
		Hidden:    s.store.HiddenConnections(nodeID, s.displayed),
	}, true
}

// Apply reduces a synchronous command. Expand needs a backend round trip and
// goes through BeginExpand and CompleteExpand instead.
func (s *GraphSession) Apply(cmd Command) (Result, error) {
	result := Result{Command: cmd.Name()}

	switch c := cmd.(type) {
	case Filter:
		s.filters = c.State.Clone()
		s.displayed = view.Project(s.store, s.filters)
		s.diverged = false

	case ExpandComponent:
		s.displayed = expand.ExpandAllConnected(s.store, c.NodeID)
		s.diverged = true

	case Remove:
		s.displayed = view.RemoveFromView(s.displayed, c.NodeID)
		s.diverged = true

	case Focus:
		s.displayed = view.Focus(s.displayed, c.NodeID)
		s.diverged = true

	case Load:
		merged := s.store.Merge(c.Result)
		s.displayed = view.ProjectDataset(s.store.Subset(c.Result), s.filters)
		s.diverged = false
		result.Merge = &merged
		result.Empty = c.Result.IsEmpty()

	case Reset:
		s.reset()

	case Restore:
		s.reset()
		merged := s.store.Merge(c.Dataset)
		s.displayed = view.Project(s.store, s.filters)
		result.Merge = &merged

	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name())
	}

	return s.fill(result), nil
}

// BeginExpand records the generation an expansion is issued against
func (s *GraphSession) BeginExpand(nodeID string) Ticket {
	return Ticket{NodeID: nodeID, Generation: s.store.Generation()}
}

// CompleteExpand merges fetched data and unions it into the current view.
// Data fetched for an older generation is dropped.
func (s *GraphSession) CompleteExpand(ticket Ticket, incoming domain.GraphDataset) (Result, error) {
	if ticket.Generation != s.store.Generation() {
		return Result{}, fmt.Errorf("%w: node %s issued at generation %d, now %d",
			ErrStaleExpansion, ticket.NodeID, ticket.Generation, s.store.Generation())
	}

	next, outcome := expand.Apply(s.store, s.displayed, incoming, ticket.NodeID)
	s.displayed = next
	s.diverged = true

	return s.fill(Result{Command: Expand{}.Name(), Expansion: &outcome}), nil
}

// Snapshot returns the current state without changing it
func (s *GraphSession) Snapshot() Result {
	return s.fill(Result{Command: "snapshot"})
}

func (s *GraphSession) reset() {
	s.store.Reset()
	s.filters = filter.Default()
	s.displayed = domain.NewGraphDataset()
	s.diverged = false
}

func (s *GraphSession) fill(r Result) Result {
	r.View = s.displayed.Clone()
	r.Filters = s.filters.Clone()
	r.Generation = s.store.Generation()
	r.Diverged = s.diverged
	r.StoreNodes = s.store.Len()
	r.StoreEdges = s.store.EdgeCount()
	return r
}
