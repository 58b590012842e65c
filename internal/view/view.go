// Package view derives and edits the dataset that is actually displayed.
//
// Every function here is pure: inputs are never modified and the returned
// dataset owns fresh maps.
package view

import (
	"cpgview/internal/domain"
	"cpgview/internal/filter"
	"cpgview/internal/store"
)

// Project returns the store nodes matching filters and the store edges whose
// endpoints both match
func Project(s *store.GraphStore, filters filter.FilterState) domain.GraphDataset {
	out := domain.NewGraphDataset()

	s.EachNode(func(n domain.Node) {
		if filters.Matches(n) {
			out.Nodes[n.ID] = n
		}
	})
	s.EachEdge(func(e domain.Edge) {
		if out.HasNode(e.From) && out.HasNode(e.To) {
			out.Edges[e.ID] = e
		}
	})

	return out
}

// ProjectDataset applies filters to an arbitrary dataset, such as a single
// query result
func ProjectDataset(ds domain.GraphDataset, filters filter.FilterState) domain.GraphDataset {
	out := domain.NewGraphDataset()
	for id, n := range ds.Nodes {
		if filters.Matches(n) {
			out.Nodes[id] = n
		}
	}
	for id, e := range ds.Edges {
		if out.HasNode(e.From) && out.HasNode(e.To) {
			out.Edges[id] = e
		}
	}
	return out
}

// RemoveFromView drops nodeID and its incident edges from the displayed dataset.
// The store keeps them, so a later projection brings them back.
func RemoveFromView(displayed domain.GraphDataset, nodeID string) domain.GraphDataset {
	out := displayed.Clone()
	if !out.HasNode(nodeID) {
		return out
	}
	delete(out.Nodes, nodeID)
	for id, e := range out.Edges {
		if e.Touches(nodeID) {
			delete(out.Edges, id)
		}
	}
	return out
}

// Focus keeps nodeID, its direct neighbours in displayed, and the edges among
// them. An id that is not displayed leaves the view unchanged.
func Focus(displayed domain.GraphDataset, nodeID string) domain.GraphDataset {
	if !displayed.HasNode(nodeID) {
		return displayed.Clone()
	}

	keep := map[string]struct{}{nodeID: {}}
	for _, e := range displayed.Edges {
		if !e.Touches(nodeID) {
			continue
		}
		other := e.Other(nodeID)
		if displayed.HasNode(other) {
			keep[other] = struct{}{}
		}
	}

	out := domain.NewGraphDataset()
	for id := range keep {
		out.Nodes[id] = displayed.Nodes[id]
	}
	for id, e := range displayed.Edges {
		if out.HasNode(e.From) && out.HasNode(e.To) {
			out.Edges[id] = e
		}
	}
	return out
}

// Union combines a and b. Entries of a win on id collisions and edges without
// both endpoints in the union are dropped.
func Union(a, b domain.GraphDataset) domain.GraphDataset {
	out := a.Clone()
	for _, n := range b.Nodes {
		out.AddNode(n)
	}
	for _, e := range b.Edges {
		out.AddEdge(e)
	}
	out.DropDanglingEdges()
	return out
}
