package domain

import "sort"

// GraphDataset is a set of nodes and edges keyed by id
type GraphDataset struct {
	Nodes map[string]Node `json:"nodes"`
	Edges map[string]Edge `json:"edges"`
}

// NewGraphDataset creates an empty dataset with initialized collections
func NewGraphDataset() GraphDataset {
	return GraphDataset{
		Nodes: make(map[string]Node),
		Edges: make(map[string]Edge),
	}
}

// DatasetOf builds a dataset from slices. Later duplicates of an id are ignored.
func DatasetOf(nodes []Node, edges []Edge) GraphDataset {
	ds := GraphDataset{
		Nodes: make(map[string]Node, len(nodes)),
		Edges: make(map[string]Edge, len(edges)),
	}
	for _, n := range nodes {
		if _, ok := ds.Nodes[n.ID]; !ok {
			ds.Nodes[n.ID] = n
		}
	}
	for _, e := range edges {
		if _, ok := ds.Edges[e.ID]; !ok {
			ds.Edges[e.ID] = e
		}
	}
	return ds
}

// AddNode inserts the node unless its id is already present.
// Returns true when the node was added.
func (g *GraphDataset) AddNode(node Node) bool {
	if g.Nodes == nil {
		g.Nodes = make(map[string]Node)
	}
	if _, ok := g.Nodes[node.ID]; ok {
		return false
	}
	g.Nodes[node.ID] = node
	return true
}

// AddEdge inserts the edge unless its id is already present.
// Returns true when the edge was added.
func (g *GraphDataset) AddEdge(edge Edge) bool {
	if g.Edges == nil {
		g.Edges = make(map[string]Edge)
	}
	if _, ok := g.Edges[edge.ID]; ok {
		return false
	}
	g.Edges[edge.ID] = edge
	return true
}

// HasNode reports whether id is a node of the dataset
func (g GraphDataset) HasNode(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}

// HasEdge reports whether id is an edge of the dataset
func (g GraphDataset) HasEdge(id string) bool {
	_, ok := g.Edges[id]
	return ok
}

// IsEmpty reports whether the dataset has neither nodes nor edges
func (g GraphDataset) IsEmpty() bool {
	return len(g.Nodes) == 0 && len(g.Edges) == 0
}

// Clone returns a shallow copy: the maps are new, node and edge values are shared
func (g GraphDataset) Clone() GraphDataset {
	out := GraphDataset{
		Nodes: make(map[string]Node, len(g.Nodes)),
		Edges: make(map[string]Edge, len(g.Edges)),
	}
	for id, n := range g.Nodes {
		out.Nodes[id] = n
	}
	for id, e := range g.Edges {
		out.Edges[id] = e
	}
	return out
}

// DropDanglingEdges removes every edge whose endpoints are not both nodes of g
func (g *GraphDataset) DropDanglingEdges() {
	for id, e := range g.Edges {
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			delete(g.Edges, id)
		}
	}
}

// NodeIDs returns the node ids in sorted order
func (g GraphDataset) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EdgeIDs returns the edge ids in sorted order
func (g GraphDataset) EdgeIDs() []string {
	ids := make([]string, 0, len(g.Edges))
	for id := range g.Edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Graph is the derived view for vis-network visualization
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode represents a node in the visualization
type GraphNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Group      string         `json:"group"`
	Color      string         `json:"color"`
	Title      map[string]any `json:"title"` // Tooltip content
	Categories []string       `json:"categories,omitempty"`
}

// GraphEdge represents an edge in the visualization
type GraphEdge struct {
	ID    string         `json:"id"`
	From  string         `json:"from"`
	To    string         `json:"to"`
	Label string         `json:"label"`
	Title map[string]any `json:"title"`
}

// DeriveGraph converts a dataset to a vis-network compatible Graph.
// Nodes and edges are emitted in id order so repeated renders are stable.
func DeriveGraph(ds GraphDataset) *Graph {
	graph := &Graph{
		Nodes: make([]GraphNode, 0, len(ds.Nodes)),
		Edges: make([]GraphEdge, 0, len(ds.Edges)),
	}

	for _, id := range ds.NodeIDs() {
		node := ds.Nodes[id]
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:         node.ID,
			Label:      displayLabel(node.Label),
			Group:      node.Label,
			Color:      NodeColor(node.Label),
			Title:      tooltip(node.Properties),
			Categories: node.Tags.Names(),
		})
	}

	for _, id := range ds.EdgeIDs() {
		edge := ds.Edges[id]
		graph.Edges = append(graph.Edges, GraphEdge{
			ID:    edge.ID,
			From:  edge.From,
			To:    edge.To,
			Label: string(edge.Label),
			Title: tooltip(edge.Properties),
		})
	}

	return graph
}

func displayLabel(label string) string {
	if label == "" {
		return "Node"
	}
	return label
}

func tooltip(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	return props
}
