// Package store holds the full dataset discovered during one analysis session.
//
// # Merge Semantics
//
// Merge is first-write-wins: an incoming node or edge is inserted only when
// its id is not yet present, and existing entries are never overwritten. This
// makes Merge idempotent and commutative, so merges arriving in any order
// converge to the same contents.
//
// Edges whose endpoints are not (yet) in the store are kept. They are ignored
// by every connectivity query until both endpoints have been merged.
//
// # Thread Safety
//
// GraphStore is NOT safe for concurrent use. It is owned by a single session
// goroutine; see the session package.
package store

import (
	"sort"

	"cpgview/internal/domain"
)

// MergeResult counts the entries a merge actually inserted
type MergeResult struct {
	AddedNodes int `json:"added_nodes"`
	AddedEdges int `json:"added_edges"`
}

// Empty reports whether the merge added nothing
func (r MergeResult) Empty() bool {
	return r.AddedNodes == 0 && r.AddedEdges == 0
}

// HiddenConnections describes the incident edges of a node that are missing
// from a displayed dataset
type HiddenConnections struct {
	Count int      `json:"count"`
	Nodes []string `json:"nodes"`
	Edges []string `json:"edges"`
}

// GraphStore is the monotonically growing dataset of a session
type GraphStore struct {
	data       domain.GraphDataset
	incident   map[string]map[string]struct{} // node id -> incident edge ids
	tagger     *domain.Tagger
	generation uint64
}

// New creates an empty store. A nil tagger uses domain.DefaultTagger.
func New(tagger *domain.Tagger) *GraphStore {
	if tagger == nil {
		tagger = domain.DefaultTagger()
	}
	return &GraphStore{
		data:     domain.NewGraphDataset(),
		incident: make(map[string]map[string]struct{}),
		tagger:   tagger,
	}
}

// Generation identifies the current dataset. It changes on every Reset.
func (s *GraphStore) Generation() uint64 {
	return s.generation
}

// Reset discards every node and edge and starts a new generation
func (s *GraphStore) Reset() {
	s.data = domain.NewGraphDataset()
	s.incident = make(map[string]map[string]struct{})
	s.generation++
}

// Merge inserts every node and edge of incoming whose id is not present yet
func (s *GraphStore) Merge(incoming domain.GraphDataset) MergeResult {
	var result MergeResult

	for id, node := range incoming.Nodes {
		if id == "" || s.data.HasNode(id) {
			continue
		}
		node.ID = id
		s.data.Nodes[id] = s.tagger.Apply(node)
		result.AddedNodes++
	}

	for id, edge := range incoming.Edges {
		if id == "" || s.data.HasEdge(id) {
			continue
		}
		edge.ID = id
		s.data.Edges[id] = edge
		s.link(edge.From, id)
		s.link(edge.To, id)
		result.AddedEdges++
	}

	return result
}

func (s *GraphStore) link(nodeID, edgeID string) {
	set, ok := s.incident[nodeID]
	if !ok {
		set = make(map[string]struct{})
		s.incident[nodeID] = set
	}
	set[edgeID] = struct{}{}
}

// Node returns the stored node with the given id
func (s *GraphStore) Node(id string) (domain.Node, bool) {
	n, ok := s.data.Nodes[id]
	return n, ok
}

// Edge returns the stored edge with the given id
func (s *GraphStore) Edge(id string) (domain.Edge, bool) {
	e, ok := s.data.Edges[id]
	return e, ok
}

// Len returns the number of stored nodes
func (s *GraphStore) Len() int {
	return len(s.data.Nodes)
}

// EdgeCount returns the number of stored edges, dangling ones included
func (s *GraphStore) EdgeCount() int {
	return len(s.data.Edges)
}

// EachNode calls fn for every stored node
func (s *GraphStore) EachNode(fn func(domain.Node)) {
	for _, n := range s.data.Nodes {
		fn(n)
	}
}

// EachEdge calls fn for every stored edge
func (s *GraphStore) EachEdge(fn func(domain.Edge)) {
	for _, e := range s.data.Edges {
		fn(e)
	}
}

// Snapshot returns a copy of the full dataset
func (s *GraphStore) Snapshot() domain.GraphDataset {
	return s.data.Clone()
}

// Subset returns the stored versions of the given nodes and edges.
// Ids unknown to the store are skipped.
func (s *GraphStore) Subset(ds domain.GraphDataset) domain.GraphDataset {
	out := domain.NewGraphDataset()
	for id := range ds.Nodes {
		if n, ok := s.data.Nodes[id]; ok {
			out.Nodes[id] = n
		}
	}
	for id := range ds.Edges {
		if e, ok := s.data.Edges[id]; ok {
			out.Edges[id] = e
		}
	}
	return out
}

// incidentEdges returns the edges touching nodeID whose far end is a stored node
func (s *GraphStore) incidentEdges(nodeID string) []domain.Edge {
	if !s.data.HasNode(nodeID) {
		return nil
	}
	edges := make([]domain.Edge, 0, len(s.incident[nodeID]))
	for edgeID := range s.incident[nodeID] {
		e := s.data.Edges[edgeID]
		if s.data.HasNode(e.Other(nodeID)) {
			edges = append(edges, e)
		}
	}
	return edges
}

// Neighbors returns the ids connected to nodeID by at least one edge in
// either direction. Unknown ids yield an empty set.
func (s *GraphStore) Neighbors(nodeID string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, e := range s.incidentEdges(nodeID) {
		out[e.Other(nodeID)] = struct{}{}
	}
	return out
}

// ConnectedComponent returns every node reachable from nodeID over stored
// edges, ignoring direction, together with every edge whose endpoints are
// both reachable. Unknown ids yield an empty dataset.
func (s *GraphStore) ConnectedComponent(nodeID string) domain.GraphDataset {
	out := domain.NewGraphDataset()
	start, ok := s.data.Nodes[nodeID]
	if !ok {
		return out
	}

	visited := map[string]struct{}{nodeID: {}}
	out.Nodes[nodeID] = start
	queue := []string{nodeID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range s.incidentEdges(current) {
			next := e.Other(current)
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			out.Nodes[next] = s.data.Nodes[next]
			queue = append(queue, next)
		}
	}

	for id := range visited {
		for edgeID := range s.incident[id] {
			e := s.data.Edges[edgeID]
			if out.HasNode(e.From) && out.HasNode(e.To) {
				out.Edges[edgeID] = e
			}
		}
	}

	return out
}

// HiddenConnections reports the edges incident to nodeID that are absent
// from visible, and the far-end nodes of those edges
func (s *GraphStore) HiddenConnections(nodeID string, visible domain.GraphDataset) HiddenConnections {
	result := HiddenConnections{Nodes: []string{}, Edges: []string{}}
	far := make(map[string]struct{})

	for _, e := range s.incidentEdges(nodeID) {
		if visible.HasEdge(e.ID) {
			continue
		}
		result.Edges = append(result.Edges, e.ID)
		far[e.Other(nodeID)] = struct{}{}
	}

	for id := range far {
		result.Nodes = append(result.Nodes, id)
	}
	sort.Strings(result.Edges)
	sort.Strings(result.Nodes)
	result.Count = len(result.Edges)

	return result
}
