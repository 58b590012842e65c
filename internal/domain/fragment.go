package domain

// GraphFragment is the list form of a dataset used for import/export
type GraphFragment struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// NewGraphFragment creates an empty graph fragment
func NewGraphFragment() *GraphFragment {
	return &GraphFragment{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// FragmentOf lists a dataset's nodes and edges in id order
func FragmentOf(ds GraphDataset) *GraphFragment {
	fragment := &GraphFragment{
		Nodes: make([]Node, 0, len(ds.Nodes)),
		Edges: make([]Edge, 0, len(ds.Edges)),
	}
	for _, id := range ds.NodeIDs() {
		fragment.Nodes = append(fragment.Nodes, ds.Nodes[id])
	}
	for _, id := range ds.EdgeIDs() {
		fragment.Edges = append(fragment.Edges, ds.Edges[id])
	}
	return fragment
}

// AddNode adds a node to the fragment
func (g *GraphFragment) AddNode(node Node) {
	g.Nodes = append(g.Nodes, node)
}

// AddEdge adds an edge to the fragment
func (g *GraphFragment) AddEdge(edge Edge) {
	g.Edges = append(g.Edges, edge)
}

// Dataset converts the fragment to a dataset, keeping the first entry per id
func (g *GraphFragment) Dataset() GraphDataset {
	return DatasetOf(g.Nodes, g.Edges)
}
